package game

// NotificationType names an outbound message pushed to one player or to a
// whole room. The values are the wire-level message types.
type NotificationType string

const (
	NtfnJoinSuccess          NotificationType = "joinSuccess"
	NtfnJoinError            NotificationType = "joinError"
	NtfnPlayerList           NotificationType = "playerList"
	NtfnHostCommandSuccess   NotificationType = "hostCommandSuccess"
	NtfnHostCommandFailure   NotificationType = "hostCommandFailure"
	NtfnDealerSetup          NotificationType = "dealerSetup"
	NtfnHandInfoInitialize   NotificationType = "handInfoInitialize"
	NtfnInitiateDealing      NotificationType = "initiateDealing"
	NtfnDealActionCompleted  NotificationType = "dealActionCompleted"
	NtfnDealToPlayer         NotificationType = "dealToPlayer"
	NtfnDeckStats            NotificationType = "deckStats"
	NtfnBetRequest           NotificationType = "betRequest"
	NtfnDealResume           NotificationType = "dealResume"
	NtfnDeckDisposition      NotificationType = "deckDisposition"
	NtfnHandPlayerInfoUpdate NotificationType = "handPlayerInfoUpdate"
	NtfnShowAllHands         NotificationType = "showAllHands"
	NtfnRejoinState          NotificationType = "rejoinPlayerState"
	NtfnDealerCommandFailure NotificationType = "dealerCommandFailure"
	NtfnBetCommandFailure    NotificationType = "betCommandFailure"
)

// Notifier delivers outbound notifications. Sends are fire-and-forget: no
// acknowledgment is awaited and a send must never block command handling.
type Notifier interface {
	// ToRoom broadcasts to every connection joined to the room.
	ToRoom(roomID string, ntfn NotificationType, payload interface{})
	// ToPlayer sends to a single connection.
	ToPlayer(connID string, ntfn NotificationType, payload interface{})
}

// HandInfo is the public metadata of the active hand.
type HandInfo struct {
	GameName    string        `json:"gameName"`
	CommentInfo string        `json:"commentInfo"`
	AnteAmount  int64         `json:"anteAmount"`
	PlayerInfo  []*HandPlayer `json:"playerInfo"`
}

// DealtCard is the dealToPlayer payload. The room-wide copy of a face-down
// deal carries the Hidden() card; the private copy carries the real one.
type DealtCard struct {
	ToPlayer string `json:"toPlayer"`
	Card     Card   `json:"card"`
}

// DeckStats reports deck and muck sizes after deal activity.
type DeckStats struct {
	Remaining int `json:"remaining"`
	Mucked    int `json:"mucked"`
}

// BetRequest is sent to the player whose betting action is pending, and as
// the bet-phase payload of a rejoin. RoundBet is the addressed player's
// contribution so far this round; CallAmount is what they owe to match
// CurrentBet.
type BetRequest struct {
	Player     string `json:"player"`
	CurrentBet int64  `json:"currentBet"`
	RoundBet   int64  `json:"roundBet"`
	CallAmount int64  `json:"callAmount"`
	RaiseCount int    `json:"raiseCount"`
	MaxRaise   int    `json:"maxRaise"`
}

// PlayerCards is one seat's visible card view.
type PlayerCards struct {
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// RejoinState rebuilds a reconnecting player's view of the room: hand
// metadata, per-seat status, card views masked for hidden information, and
// a phase-specific payload.
type RejoinState struct {
	Phase      string        `json:"gameState"`
	StateActor string        `json:"stateActor"`
	HandInfo   *HandInfo     `json:"handInfo,omitempty"`
	Cards      []PlayerCards `json:"cards,omitempty"`
	DealToNext string        `json:"dealToNext,omitempty"`
	BetState   *BetRequest   `json:"betState,omitempty"`
}
