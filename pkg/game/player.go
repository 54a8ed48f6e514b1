package game

// Player is a room-level player. It outlives any single hand: the balance
// carries across hands and the (name, pin) pair is the rejoin identity.
// ConnID is volatile and rebound on every reconnect.
type Player struct {
	Name     string `json:"name"`
	Pin      string `json:"-"`
	ConnID   string `json:"-"`
	IsHost   bool   `json:"host"`
	IsDealer bool   `json:"dealer"`
	Balance  int64  `json:"amount"`
	BuyIn    int64  `json:"buyInAmount"`
	Status   string `json:"status"`
}

// HandPlayer is a player's per-hand seat: the pot contribution for this
// hand, the fold flag and the cards dealt so far. Seats are created at hand
// start mirroring the room roster and are never removed; folding only flags
// the seat.
type HandPlayer struct {
	Name        string `json:"name"`
	Pot         int64  `json:"amount"`
	Folded      bool   `json:"fold"`
	Declaration string `json:"declaration"`
	Extra       string `json:"extra"`
	Cards       []Card `json:"-"`
}
