package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/cardroom/cardroom/pkg/statemachine"
)

// AnteMode selects who posts the ante for a hand.
type AnteMode string

const (
	AntePerPlayer     AnteMode = "player"
	AnteDealerPaysAll AnteMode = "dealer"
)

// GamePhase is the room's high-level phase, used to reconstruct state for a
// rejoining player.
type GamePhase string

const (
	PhaseJoin      GamePhase = "Join"
	PhaseGameSetup GamePhase = "GameSetup"
	PhaseDeal      GamePhase = "Deal"
	PhaseDealWait  GamePhase = "DealWait"
	PhaseBet       GamePhase = "Bet"
)

// Dealer pick modes for the PickDealer host command.
const (
	PickDealerRandom = "Random"
	PickDealerManual = "Manual"
)

// RoomStateFn is a room state function following Rob Pike's pattern.
type RoomStateFn = statemachine.StateFn[Room]

// Room phase state functions. The phases are markers: each stays in place
// until a command dispatches the next one.

func roomStateJoin(r *Room) RoomStateFn      { return roomStateJoin }
func roomStateGameSetup(r *Room) RoomStateFn { return roomStateGameSetup }
func roomStateDeal(r *Room) RoomStateFn      { return roomStateDeal }
func roomStateDealWait(r *Room) RoomStateFn  { return roomStateDealWait }
func roomStateBet(r *Room) RoomStateFn       { return roomStateBet }

// RoomConfig holds configuration for a new room.
type RoomConfig struct {
	ID          string
	Log         slog.Logger
	Notifier    Notifier
	AnteMode    AnteMode
	DefaultAnte int64
	MaxRaise    int
	Rand        *rand.Rand
}

// Room is the durable per-room anchor: the seated roster with running
// balances, the dealer and host identities, the high-level phase, and the
// active hand when one is in play. Rooms are created on first join and live
// for the server's lifetime.
//
// Every command affecting a room runs under its mutex; commands for the
// same room are strictly serialized.
type Room struct {
	mu  sync.Mutex
	cfg RoomConfig

	// players is the seating order: insertion order determines turn
	// rotation for dealing and betting.
	players []*Player

	hand *Hand

	// stateActor names the player the current phase pertains to: the
	// dealer during GameSetup/Deal/DealWait, the current bettor during
	// Bet.
	stateActor string

	state *statemachine.Machine[Room]
}

// NewRoom creates an empty room in the Join phase.
func NewRoom(cfg RoomConfig) *Room {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.AnteMode == "" {
		cfg.AnteMode = AntePerPlayer
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	r := &Room{cfg: cfg}
	r.state = statemachine.New(r, roomStateJoin)
	return r
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.cfg.ID }

// phase maps the current state function to its phase tag. Callers hold the
// room lock.
func (r *Room) phase() GamePhase {
	current := r.state.Current()
	switch fmt.Sprintf("%p", current) {
	case fmt.Sprintf("%p", roomStateGameSetup):
		return PhaseGameSetup
	case fmt.Sprintf("%p", roomStateDeal):
		return PhaseDeal
	case fmt.Sprintf("%p", roomStateDealWait):
		return PhaseDealWait
	case fmt.Sprintf("%p", roomStateBet):
		return PhaseBet
	default:
		return PhaseJoin
	}
}

// Phase returns the room's current phase.
func (r *Room) Phase() GamePhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase()
}

// StateActor returns the player the current phase pertains to.
func (r *Room) StateActor() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateActor
}

// setPhase dispatches the state machine to next and records the actor the
// phase pertains to.
func (r *Room) setPhase(next RoomStateFn, actor string) {
	r.state.Dispatch(next)
	r.stateActor = actor
}

// playerByName returns the seated player with name, or nil.
func (r *Room) playerByName(name string) *Player {
	for _, p := range r.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// playerIndex returns the seat index of name, or -1.
func (r *Room) playerIndex(name string) int {
	for i, p := range r.players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// dealerIndex returns the seat index of the dealer, or -1 before a dealer
// has been picked.
func (r *Room) dealerIndex() int {
	for i, p := range r.players {
		if p.IsDealer {
			return i
		}
	}
	return -1
}

// dealerName returns the dealer's name, or "".
func (r *Room) dealerName() string {
	if i := r.dealerIndex(); i >= 0 {
		return r.players[i].Name
	}
	return ""
}

// hasHost reports whether some player holds the host flag.
func (r *Room) hasHost() bool {
	for _, p := range r.players {
		if p.IsHost {
			return true
		}
	}
	return false
}

// HasHost reports whether the room has a host. Consumed by the join UI's
// checkHost query.
func (r *Room) HasHost() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasHost()
}

// notifyRoom broadcasts to every connection in the room.
func (r *Room) notifyRoom(ntfn NotificationType, payload interface{}) {
	r.cfg.Notifier.ToRoom(r.cfg.ID, ntfn, payload)
}

// notifyPlayerByName sends to the named player's current connection.
func (r *Room) notifyPlayerByName(name string, ntfn NotificationType, payload interface{}) {
	if p := r.playerByName(name); p != nil {
		r.cfg.Notifier.ToPlayer(p.ConnID, ntfn, payload)
	}
}

// notifyDealer sends to the dealer's current connection. Because the lookup
// resolves the dealer's ConnID at send time, the dealer's private prompts
// follow them across reconnects.
func (r *Room) notifyDealer(ntfn NotificationType, payload interface{}) {
	r.notifyPlayerByName(r.dealerName(), ntfn, payload)
}

// playerListPayload is the roster broadcast sent after any change to
// players or balances.
func (r *Room) playerListPayload() map[string]interface{} {
	return map[string]interface{}{"playerList": r.players}
}

// BroadcastPlayerList pushes the current roster to the whole room.
func (r *Room) BroadcastPlayerList() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifyRoom(NtfnPlayerList, r.playerListPayload())
}

// Join adds a new player, or resumes an existing one when the (name, pin)
// pair matches a seated player. On resume only the connection is rebound;
// identity and balance are untouched. A new player whose name collides with
// a seated player's is rejected with ErrNameTaken and no state changes.
//
// The first join asking for host keeps the flag for the room's lifetime;
// later requests are ignored.
func (r *Room) Join(name, pin, connID string, wantHost bool, buyIn int64) (*Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.Name == name && p.Pin == pin {
			p.ConnID = connID
			r.cfg.Log.Infof("%s rejoined room %s", name, r.cfg.ID)
			return p, true, nil
		}
	}

	if r.playerByName(name) != nil {
		return nil, false, ErrNameTaken
	}

	p := &Player{
		Name:    name,
		Pin:     pin,
		ConnID:  connID,
		IsHost:  wantHost && !r.hasHost(),
		Balance: buyIn,
		BuyIn:   buyIn,
	}
	r.players = append(r.players, p)

	hostTag := ""
	if p.IsHost {
		hostTag = " (host)"
	}
	r.cfg.Log.Infof("%s%s joined room %s, seat %d", name, hostTag, r.cfg.ID, len(r.players)-1)
	return p, false, nil
}

// Recover rebuilds a rejoining player's view after a reconnect. The
// dispatch follows the room phase: nothing to restore in Join, the hand
// setup prompt for a rejoining dealer in GameSetup, and the hand's resend
// logic plus the phase's pending prompt in the deal and bet phases.
func (r *Room) Recover(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.phase() {
	case PhaseJoin:
		// Nothing beyond the roster broadcast.

	case PhaseGameSetup:
		if p.IsDealer {
			r.notifyPlayerByName(p.Name, NtfnDealerSetup, r.dealerSetupPayload())
		}

	case PhaseDeal, PhaseDealWait:
		if r.hand == nil {
			return
		}
		r.hand.resendState(p)
		if p.IsDealer {
			if r.phase() == PhaseDeal {
				r.notifyPlayerByName(p.Name, NtfnInitiateDealing, map[string]string{
					"dealToNext": r.hand.Players[r.hand.dealToNext].Name,
				})
			} else {
				r.notifyPlayerByName(p.Name, NtfnDeckDisposition, nil)
			}
		}

	case PhaseBet:
		if r.hand == nil {
			return
		}
		r.hand.resendState(p)
		if r.hand.bet != nil && r.hand.bet.CurrentPlayer == p.Name {
			r.hand.sendBetRequest(p.Name)
		}
	}
}

// AuthPlayer reports whether name is seated with connID as its live
// connection. Bet commands carry both; a mismatch is a desync or cheating
// signal.
func (r *Room) AuthPlayer(name, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.playerByName(name)
	return p != nil && p.ConnID == connID
}

// IsHost reports whether connID belongs to the room's host.
func (r *Room) IsHost(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.IsHost && p.ConnID == connID {
			return true
		}
	}
	return false
}

// IsDealer reports whether connID belongs to the room's dealer.
func (r *Room) IsDealer(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.IsDealer && p.ConnID == connID {
			return true
		}
	}
	return false
}

// setDealerByIndex resets the dealer flag across the roster so exactly one
// player holds it.
func (r *Room) setDealerByIndex(idx int) {
	for i, p := range r.players {
		p.IsDealer = i == idx
	}
}

// PickDealer selects the dealer, randomly or by name, then hands control to
// them for hand setup.
func (r *Room) PickDealer(mode, player string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) == 0 {
		return fmt.Errorf("no players in room")
	}

	idx := r.cfg.Rand.Intn(len(r.players))
	if mode == PickDealerManual {
		idx = r.playerIndex(player)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
		}
	}

	r.setDealerByIndex(idx)
	r.notifyRoom(NtfnPlayerList, r.playerListPayload())
	r.passControlToDealer()
	return nil
}

// passControlToDealer moves the room into GameSetup and prompts the dealer
// to set up the next hand. Callers hold the room lock.
func (r *Room) passControlToDealer() {
	r.setPhase(roomStateGameSetup, r.dealerName())
	r.notifyDealer(NtfnDealerSetup, r.dealerSetupPayload())
}

// dealerSetupPayload carries the room defaults the dealer's setup dialog
// prefills.
func (r *Room) dealerSetupPayload() map[string]interface{} {
	return map[string]interface{}{
		"defaultAnte": r.cfg.DefaultAnte,
		"anteMode":    r.cfg.AnteMode,
		"maxRaise":    r.cfg.MaxRaise,
	}
}

// HandSetup starts a new hand: seats the roster, collects the ante, and
// prompts the dealer to begin dealing. The returned transfers record the
// ante movements for the ledger.
func (r *Room) HandSetup(gameName, comment string, ante int64) ([]Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dealerIndex() < 0 {
		return nil, fmt.Errorf("no dealer selected")
	}
	if len(r.players) == 0 {
		return nil, fmt.Errorf("no players in room")
	}
	if ante == 0 {
		ante = r.cfg.DefaultAnte
	}

	r.hand = newHand(r, gameName, comment, ante)
	transfers := r.hand.collectAnte()
	r.setPhase(roomStateDeal, r.dealerName())

	r.notifyRoom(NtfnPlayerList, r.playerListPayload())
	r.notifyRoom(NtfnHandInfoInitialize, r.hand.handInfo())
	r.notifyRoom(NtfnDeckStats, r.hand.deckStats())
	r.notifyDealer(NtfnInitiateDealing, map[string]string{
		"dealToNext": r.hand.Players[r.hand.dealToNext].Name,
	})

	r.cfg.Log.Infof("room %s: hand %q started, ante %d", r.cfg.ID, gameName, ante)
	return transfers, nil
}

// requireHand returns the active hand or ErrNoActiveHand.
func (r *Room) requireHand() (*Hand, error) {
	if r.hand == nil {
		return nil, ErrNoActiveHand
	}
	return r.hand, nil
}

// DealToAll deals one card to every active player, starting at startPlayer.
func (r *Room) DealToAll(mode, startPlayer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return err
	}
	if err := h.dealToAll(mode, startPlayer); err != nil {
		return err
	}
	r.notifyDealer(NtfnDealActionCompleted, nil)
	r.notifyRoom(NtfnDeckStats, h.deckStats())
	return nil
}

// DealToSpecific deals one card to a single player.
func (r *Room) DealToSpecific(mode, toPlayer string, special bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return err
	}
	if err := h.dealTo(toPlayer, mode, special); err != nil {
		return err
	}
	r.notifyDealer(NtfnDealActionCompleted, nil)
	r.notifyRoom(NtfnDeckStats, h.deckStats())
	return nil
}

// MuckReshuffle moves the muck back into the deck and shuffles it. This is
// the dealer's recovery action once the deck is exhausted mid-hand.
func (r *Room) MuckReshuffle() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return err
	}
	h.deck.MoveMuckToDeck()
	h.deck.Shuffle()
	r.notifyRoom(NtfnDeckStats, h.deckStats())
	return nil
}

// BetInitiate opens a betting round anchored at startPlayer.
func (r *Room) BetInitiate(startPlayer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return err
	}
	return h.initiateBetting(startPlayer)
}

// ShowAllHands reveals all active hands to the room.
func (r *Room) ShowAllHands() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return err
	}
	h.showAllHands()
	return nil
}

// Payout distributes the pot as directed by the dealer and closes the hand.
func (r *Room) Payout(winners []Winner) ([]Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return nil, err
	}
	return h.processPayout(winners)
}

// DealAgain keeps the deal with the current dealer and returns to hand
// setup. Valid once the hand has been paid out.
func (r *Room) DealAgain() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase() != PhaseDealWait {
		return fmt.Errorf("no finished hand to continue from")
	}
	r.hand = nil
	r.passControlToDealer()
	return nil
}

// PassDeal moves the deal one seat to the left and hands control to the new
// dealer. Valid once the hand has been paid out.
func (r *Room) PassDeal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase() != PhaseDealWait {
		return fmt.Errorf("no finished hand to continue from")
	}

	idx := r.dealerIndex()
	if idx < 0 {
		return fmt.Errorf("no dealer selected")
	}
	r.hand = nil
	r.setDealerByIndex((idx + 1) % len(r.players))
	r.notifyRoom(NtfnPlayerList, r.playerListPayload())
	r.passControlToDealer()
	return nil
}

// Check advances the betting round without wagering.
func (r *Room) Check(player string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return err
	}
	return h.processCheck(player)
}

// BetRaise wagers. A zero raise is a call; the transfer records the actual
// amount moved for the ledger.
func (r *Room) BetRaise(player string, raiseDelta int64) (Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return Transfer{}, err
	}
	return h.processBetRaise(player, raiseDelta)
}

// Fold removes the player from the rest of the hand.
func (r *Room) Fold(player string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.requireHand()
	if err != nil {
		return err
	}
	return h.processFold(player)
}

// Players returns a snapshot of the roster in seating order.
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Player, len(r.players))
	for i, p := range r.players {
		out[i] = *p
	}
	return out
}
