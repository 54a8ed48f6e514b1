package game

// BetSeat tracks one active player's wagering for a single betting round.
type BetSeat struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	Folded bool   `json:"fold"`
}

// BetRound enforces turn order and the raise ceiling for one betting round.
// It is created fresh for every round and discarded when the round ends.
//
// StopPlayer is the player whose turn, when reached again, ends the round:
// the round's opener until somebody raises, then the last raiser.
type BetRound struct {
	StopPlayer    string
	CurrentPlayer string
	CurrentBet    int64
	RaiseCount    int
	MaxRaise      int
	Seats         []BetSeat
	Ended         bool
}

// newBetRound seeds a round from the hand's non-folded seats, anchored at
// opener.
func newBetRound(players []*HandPlayer, opener string, maxRaise int) *BetRound {
	seats := make([]BetSeat, 0, len(players))
	for _, p := range players {
		if !p.Folded {
			seats = append(seats, BetSeat{Name: p.Name})
		}
	}

	return &BetRound{
		StopPlayer:    opener,
		CurrentPlayer: opener,
		MaxRaise:      maxRaise,
		Seats:         seats,
	}
}

// seatIndex returns the index of name in Seats, or -1.
func (b *BetRound) seatIndex(name string) int {
	for i := range b.Seats {
		if b.Seats[i].Name == name {
			return i
		}
	}
	return -1
}

// Seat returns the seat for name, or nil.
func (b *BetRound) Seat(name string) *BetSeat {
	if i := b.seatIndex(name); i >= 0 {
		return &b.Seats[i]
	}
	return nil
}

// Advance moves CurrentPlayer to the next non-folded seat and marks the
// round ended when the turn returns to StopPlayer. A raise makes the raiser
// the new stop player, so everyone after them must act again. If the stop
// player folds on their own turn, whoever acts next becomes the new stop
// player; the round could otherwise never end.
func (b *BetRound) Advance(didRaise bool) {
	idx := b.seatIndex(b.CurrentPlayer)
	if idx < 0 {
		return
	}

	stopPlayerFolded := b.CurrentPlayer == b.StopPlayer && b.Seats[idx].Folded

	if didRaise {
		b.StopPlayer = b.CurrentPlayer
	}

	next, ok := NextActiveSeat(b.Seats, idx)
	if !ok {
		// Every seat has folded; leave the turn where it is. The caller
		// detects the degenerate one-player-left case separately.
		b.Ended = true
		return
	}

	b.CurrentPlayer = b.Seats[next].Name
	b.Ended = b.CurrentPlayer == b.StopPlayer

	if stopPlayerFolded {
		b.StopPlayer = b.CurrentPlayer
	}
}

// MarkFolded flags name's seat as folded for this round. Seating is not
// altered.
func (b *BetRound) MarkFolded(name string) {
	if seat := b.Seat(name); seat != nil {
		seat.Folded = true
	}
}

// ActiveCount returns the number of non-folded seats in this round.
func (b *BetRound) ActiveCount() int {
	n := 0
	for i := range b.Seats {
		if !b.Seats[i].Folded {
			n++
		}
	}
	return n
}

// NextActiveSeat returns the index of the first non-folded seat after start,
// wrapping at the end of the seating order. The scan is bounded by the seat
// count; if every seat is folded it returns start and false.
func NextActiveSeat(seats []BetSeat, start int) (int, bool) {
	n := len(seats)
	if n == 0 {
		return start, false
	}
	for step := 1; step <= n; step++ {
		idx := (start + step) % n
		if !seats[idx].Folded {
			return idx, true
		}
	}
	return start, false
}
