package game

import (
	"fmt"
)

// Deal modes accepted by the deal commands.
const (
	DealFaceUp   = "up"
	DealFaceDown = "down"
)

// Transfer records one balance movement between a player's room balance and
// the hand pot (or, for payouts and buy-ins, back out of it). Amount is the
// delta applied to the room balance, so money entering the pot is negative.
type Transfer struct {
	Player string
	Amount int64
	Kind   string
}

// Winner is one line of a dealer-directed payout.
type Winner struct {
	Name   string  `json:"name"`
	Split  float64 `json:"split"`
	Amount int64   `json:"amount"`
}

// Hand owns the full lifecycle of one dealt hand: ante collection, dealing,
// betting rounds, showdown and payout. It is created by HandSetup and
// discarded once the pot is paid out. All methods are called with the room
// lock held.
type Hand struct {
	room *Room

	GameName string
	Comment  string
	Ante     int64

	deck    *Deck
	Players []*HandPlayer

	// dealToNext indexes Players: whose turn it is to receive a card.
	dealToNext int

	bet *BetRound
}

// newHand seats the room roster in order, shuffles a fresh deck and points
// dealToNext at the seat after the dealer.
func newHand(room *Room, gameName, comment string, ante int64) *Hand {
	h := &Hand{
		room:     room,
		GameName: gameName,
		Comment:  comment,
		Ante:     ante,
		deck:     NewDeck(room.cfg.Rand),
	}

	for _, p := range room.players {
		h.Players = append(h.Players, &HandPlayer{Name: p.Name})
	}

	dealerIdx := room.dealerIndex()
	h.dealToNext = 0
	if dealerIdx >= 0 {
		h.dealToNext = (dealerIdx + 1) % len(h.Players)
	}

	h.deck.Shuffle()
	return h
}

// seatIndex returns the index of name in Players, or -1.
func (h *Hand) seatIndex(name string) int {
	for i, p := range h.Players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// nextActiveSeat returns the first non-folded seat after start, wrapping.
func (h *Hand) nextActiveSeat(start int) (int, bool) {
	n := len(h.Players)
	if n == 0 {
		return start, false
	}
	for step := 1; step <= n; step++ {
		idx := (start + step) % n
		if !h.Players[idx].Folded {
			return idx, true
		}
	}
	return start, false
}

// activeCount returns the number of non-folded seats.
func (h *Hand) activeCount() int {
	n := 0
	for _, p := range h.Players {
		if !p.Folded {
			n++
		}
	}
	return n
}

// potTotal returns the sum of all seats' pot contributions.
func (h *Hand) potTotal() int64 {
	var total int64
	for _, p := range h.Players {
		total += p.Pot
	}
	return total
}

// collectAnte debits room balances and credits hand pot contributions as a
// single accounting step: the total room-balance decrease equals the total
// pot increase. In PerPlayer mode every player antes; in DealerPaysAll the
// dealer alone is debited the ante times the player count.
func (h *Hand) collectAnte() []Transfer {
	var transfers []Transfer

	if h.room.cfg.AnteMode == AnteDealerPaysAll {
		dealerIdx := h.room.dealerIndex()
		if dealerIdx < 0 {
			return nil
		}
		total := h.Ante * int64(len(h.room.players))
		h.room.players[dealerIdx].Balance -= total
		h.Players[dealerIdx].Pot += total
		return []Transfer{{Player: h.Players[dealerIdx].Name, Amount: -total, Kind: "ante"}}
	}

	for i, p := range h.room.players {
		p.Balance -= h.Ante
		h.Players[i].Pot += h.Ante
		transfers = append(transfers, Transfer{Player: p.Name, Amount: -h.Ante, Kind: "ante"})
	}
	return transfers
}

// dealTo pops the next card, applies the deal mode, appends the card to the
// named seat and emits it under the visibility policy: the room sees a
// masked back for face-down deals while the recipient's private channel gets
// the true card; face-up and special deals go to everyone as-is. dealToNext
// advances to the next active seat.
func (h *Hand) dealTo(name, mode string, special bool) error {
	idx := h.seatIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	seat := h.Players[idx]
	if seat.Folded {
		return fmt.Errorf("%w: %s", ErrPlayerFolded, name)
	}

	card, err := h.deck.DealNext()
	if err != nil {
		return err
	}
	card.FaceUp = mode == DealFaceUp
	card.Special = special
	seat.Cards = append(seat.Cards, card)

	h.room.notifyRoom(NtfnDealToPlayer, DealtCard{ToPlayer: name, Card: card.Hidden()})
	if !card.FaceUp && !card.Special {
		private := card
		private.FaceUp = true
		h.room.notifyPlayerByName(name, NtfnDealToPlayer, DealtCard{ToPlayer: name, Card: private})
	}

	if next, ok := h.nextActiveSeat(idx); ok {
		h.dealToNext = next
	}
	return nil
}

// dealToAll deals one card to every active seat, starting at startPlayer and
// wrapping once through the seating order. Folded seats are skipped. On deck
// exhaustion the cards already dealt stand and the error is reported to the
// dealer, who recovers with a muck reshuffle.
func (h *Hand) dealToAll(mode, startPlayer string) error {
	start := h.seatIndex(startPlayer)
	if start < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, startPlayer)
	}

	n := len(h.Players)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if h.Players[idx].Folded {
			continue
		}
		if err := h.dealTo(h.Players[idx].Name, mode, false); err != nil {
			return err
		}
	}
	return nil
}

// initiateBetting opens a betting round anchored at opener and moves the
// room to the Bet phase.
func (h *Hand) initiateBetting(opener string) error {
	idx := h.seatIndex(opener)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, opener)
	}
	if h.Players[idx].Folded {
		return fmt.Errorf("%w: %s", ErrPlayerFolded, opener)
	}

	h.bet = newBetRound(h.Players, opener, h.room.cfg.MaxRaise)
	h.room.setPhase(roomStateBet, opener)
	h.sendBetRequest(opener)
	return nil
}

// sendBetRequest prompts name to act, with the round context they need.
func (h *Hand) sendBetRequest(name string) {
	seat := h.bet.Seat(name)
	if seat == nil {
		return
	}
	h.room.notifyPlayerByName(name, NtfnBetRequest, h.betRequestFor(name))
}

// betRequestFor builds the betting context addressed to name.
func (h *Hand) betRequestFor(name string) *BetRequest {
	var roundBet int64
	if seat := h.bet.Seat(name); seat != nil {
		roundBet = seat.Amount
	}
	return &BetRequest{
		Player:     h.bet.CurrentPlayer,
		CurrentBet: h.bet.CurrentBet,
		RoundBet:   roundBet,
		CallAmount: h.bet.CurrentBet - roundBet,
		RaiseCount: h.bet.RaiseCount,
		MaxRaise:   h.bet.MaxRaise,
	}
}

// requireTurn validates that player holds the pending action.
func (h *Hand) requireTurn(player string) error {
	if h.bet == nil {
		return ErrNoBetRound
	}
	if h.bet.CurrentPlayer != player {
		return fmt.Errorf("%w: action is on %s", ErrNotYourTurn, h.bet.CurrentPlayer)
	}
	return nil
}

// processCheck advances the round without wagering.
func (h *Hand) processCheck(player string) error {
	if err := h.requireTurn(player); err != nil {
		return err
	}
	h.bet.Advance(false)
	h.afterBetAction()
	return nil
}

// processBetRaise wagers. raiseDelta is the raise over the current bet
// level; zero is a call. The amount actually moved is the gap between the
// player's new total and what they have already put in this round.
func (h *Hand) processBetRaise(player string, raiseDelta int64) (Transfer, error) {
	if err := h.requireTurn(player); err != nil {
		return Transfer{}, err
	}
	if raiseDelta < 0 {
		return Transfer{}, fmt.Errorf("negative raise %d", raiseDelta)
	}
	if raiseDelta > 0 && h.bet.RaiseCount >= h.bet.MaxRaise {
		return Transfer{}, ErrRaiseLimit
	}

	seat := h.bet.Seat(player)
	handSeat := h.Players[h.seatIndex(player)]
	roomPlayer := h.room.playerByName(player)
	if seat == nil || roomPlayer == nil {
		return Transfer{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}

	newTotal := h.bet.CurrentBet + raiseDelta
	owed := newTotal - seat.Amount

	roomPlayer.Balance -= owed
	seat.Amount += owed
	handSeat.Pot += owed
	h.bet.CurrentBet = newTotal
	if raiseDelta != 0 {
		h.bet.RaiseCount++
	}

	h.bet.Advance(raiseDelta != 0)
	h.room.notifyRoom(NtfnPlayerList, h.room.playerListPayload())
	h.room.notifyRoom(NtfnHandPlayerInfoUpdate, h.Players)
	h.afterBetAction()

	return Transfer{Player: player, Amount: -owed, Kind: "bet"}, nil
}

// processFold flags the seat, mucks the player's cards and advances the
// round. The seat stays in the hand; only the flag changes.
func (h *Hand) processFold(player string) error {
	if err := h.requireTurn(player); err != nil {
		return err
	}

	idx := h.seatIndex(player)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}
	seat := h.Players[idx]
	seat.Folded = true
	h.bet.MarkFolded(player)

	for _, c := range seat.Cards {
		h.deck.AddToMuck(c)
	}
	seat.Cards = nil

	h.room.notifyRoom(NtfnHandPlayerInfoUpdate, h.Players)
	h.room.notifyRoom(NtfnDeckStats, h.deckStats())

	h.bet.Advance(false)
	h.afterBetAction()
	return nil
}

// afterBetAction closes the round when the turn has returned to the stop
// player, or when folding has left a single active player; otherwise it
// prompts the new current player.
func (h *Hand) afterBetAction() {
	if h.bet.Ended || h.bet.ActiveCount() <= 1 {
		h.bet = nil
		h.room.setPhase(roomStateDeal, h.room.dealerName())
		h.room.notifyDealer(NtfnDealResume, nil)
		return
	}
	h.room.stateActor = h.bet.CurrentPlayer
	h.sendBetRequest(h.bet.CurrentPlayer)
}

// processPayout distributes the pot as directed by the dealer, then zeroes
// every seat's contribution and prompts the dealer for the deck
// disposition. The amounts must distribute the pot exactly; partial or
// excess payouts are rejected before any state changes.
func (h *Hand) processPayout(winners []Winner) ([]Transfer, error) {
	var total int64
	for _, w := range winners {
		if h.seatIndex(w.Name) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, w.Name)
		}
		total += w.Amount
	}
	if total != h.potTotal() {
		return nil, fmt.Errorf("%w: paying %d of %d", ErrBadPayout, total, h.potTotal())
	}

	transfers := make([]Transfer, 0, len(winners))
	for _, w := range winners {
		h.room.playerByName(w.Name).Balance += w.Amount
		transfers = append(transfers, Transfer{Player: w.Name, Amount: w.Amount, Kind: "payout"})
	}
	for _, p := range h.Players {
		p.Pot = 0
	}

	h.room.setPhase(roomStateDealWait, h.room.dealerName())
	h.room.notifyRoom(NtfnPlayerList, h.room.playerListPayload())
	h.room.notifyRoom(NtfnHandPlayerInfoUpdate, h.Players)
	h.room.notifyDealer(NtfnDeckDisposition, nil)
	return transfers, nil
}

// showAllHands reveals every active seat's cards to the room.
func (h *Hand) showAllHands() {
	shown := make([]PlayerCards, 0, len(h.Players))
	for _, p := range h.Players {
		if p.Folded {
			continue
		}
		cards := make([]Card, len(p.Cards))
		for i, c := range p.Cards {
			c.FaceUp = true
			cards[i] = c
		}
		shown = append(shown, PlayerCards{Name: p.Name, Cards: cards})
	}
	h.room.notifyRoom(NtfnShowAllHands, shown)
}

// cardViewFor builds every seat's card view as seen by viewer: the viewer's
// own cards in full, other players' face-down cards masked, face-up and
// special cards as-is.
func (h *Hand) cardViewFor(viewer string) []PlayerCards {
	views := make([]PlayerCards, 0, len(h.Players))
	for _, p := range h.Players {
		cards := make([]Card, len(p.Cards))
		for i, c := range p.Cards {
			if p.Name == viewer {
				c.FaceUp = true
				cards[i] = c
			} else {
				cards[i] = c.Hidden()
			}
		}
		views = append(views, PlayerCards{Name: p.Name, Cards: cards})
	}
	return views
}

// handInfo returns the hand's public metadata and seat status.
func (h *Hand) handInfo() *HandInfo {
	return &HandInfo{
		GameName:    h.GameName,
		CommentInfo: h.Comment,
		AnteAmount:  h.Ante,
		PlayerInfo:  h.Players,
	}
}

// deckStats returns the current deck and muck counts.
func (h *Hand) deckStats() DeckStats {
	return DeckStats{Remaining: h.deck.Remaining(), Mucked: h.deck.MuckCount()}
}

// resendState rebuilds a rejoining player's view of the hand. The payload
// carries the hand metadata, seat status, masked card views and a
// phase-specific section: who is dealt to next when restoring into a deal
// phase, the betting context when restoring into the bet phase.
func (h *Hand) resendState(p *Player) {
	state := &RejoinState{
		Phase:      string(h.room.phase()),
		StateActor: h.room.stateActor,
		HandInfo:   h.handInfo(),
		Cards:      h.cardViewFor(p.Name),
	}

	switch h.room.phase() {
	case PhaseDeal, PhaseDealWait:
		state.DealToNext = h.Players[h.dealToNext].Name
	case PhaseBet:
		if h.bet != nil {
			state.BetState = h.betRequestFor(p.Name)
		}
	}

	h.room.cfg.Notifier.ToPlayer(p.ConnID, NtfnRejoinState, state)
}
