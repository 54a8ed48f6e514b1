package game

import "errors"

var (
	// ErrNameTaken is returned when a joining player's name is already in
	// use in the room with a different pin.
	ErrNameTaken = errors.New("player name already exists")

	// ErrUnknownPlayer is returned when a command names a player that is
	// not in the room or hand.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrNotYourTurn is returned for a bet action from a player who is not
	// the round's current player. Benign desync or attempted cheating;
	// never fatal to the room.
	ErrNotYourTurn = errors.New("not your turn to act")

	// ErrNoActiveHand is returned for dealer/bet commands outside a hand.
	ErrNoActiveHand = errors.New("no active hand")

	// ErrNoBetRound is returned for bet actions outside a betting round.
	ErrNoBetRound = errors.New("no betting round in progress")

	// ErrRaiseLimit is returned when a raise would exceed the round's
	// raise ceiling.
	ErrRaiseLimit = errors.New("raise limit reached")

	// ErrPlayerFolded is returned when dealing to a folded player.
	ErrPlayerFolded = errors.New("player has folded")

	// ErrBadPayout is returned when the dealer's payout does not
	// distribute the pot exactly.
	ErrBadPayout = errors.New("payout does not match pot")
)
