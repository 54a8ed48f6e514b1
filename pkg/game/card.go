package game

// Suit represents a card suit.
type Suit string

const (
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Spades   Suit = "S"
	Clubs    Suit = "C"
)

// Value represents a card value.
type Value string

const (
	Ace   Value = "A"
	Two   Value = "2"
	Three Value = "3"
	Four  Value = "4"
	Five  Value = "5"
	Six   Value = "6"
	Seven Value = "7"
	Eight Value = "8"
	Nine  Value = "9"
	Ten   Value = "T"
	Jack  Value = "J"
	Queen Value = "Q"
	King  Value = "K"
)

// hiddenMark is the sentinel suit/value broadcast in place of a face-down
// card. Clients render it as a card back.
const hiddenMark = "X"

// Card is a playing card. FaceUp records how the card was dealt; Special
// marks cards outside normal dealing (e.g. a widow or indicator card).
type Card struct {
	Suit    Suit  `json:"suit"`
	Value   Value `json:"value"`
	FaceUp  bool  `json:"faceUp"`
	Special bool  `json:"special"`
}

// Hidden returns the back-of-card representation of c. Face-up and special
// cards are public and pass through unchanged; only face-down card values
// are masked.
func (c Card) Hidden() Card {
	if c.FaceUp || c.Special {
		return c
	}
	return Card{Suit: hiddenMark, Value: hiddenMark}
}

// IsHidden reports whether c is a masked card back.
func (c Card) IsHidden() bool {
	return c.Suit == hiddenMark
}

func (c Card) String() string {
	return string(c.Value) + string(c.Suit)
}
