package game

import (
	"errors"
	"math/rand"
)

// ErrDeckExhausted is returned by DealNext when no cards remain. The dealer
// recovers by moving the muck back into the deck and reshuffling.
var ErrDeckExhausted = errors.New("deck exhausted")

// shufflePasses is the number of full swap-per-slot passes a shuffle makes.
const shufflePasses = 8

// Deck is a deck of 52 cards plus a muck (discard pile). The muck collects
// folded cards and can be swapped back in once the deck runs dry.
type Deck struct {
	cards []Card
	muck  []Card
	rng   *rand.Rand
}

// NewDeck builds an unshuffled 52-card deck, every card face down.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		muck:  make([]Card, 0, 52),
		rng:   rng,
	}

	suits := []Suit{Hearts, Diamonds, Spades, Clubs}
	values := []Value{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
	for _, suit := range suits {
		for _, value := range values {
			d.cards = append(d.cards, Card{Suit: suit, Value: value})
		}
	}

	return d
}

// Shuffle randomizes the deck order.
func (d *Deck) Shuffle() {
	d.shuffleTarget(d.cards)
}

// ShuffleMuck randomizes the muck order.
func (d *Deck) ShuffleMuck() {
	d.shuffleTarget(d.muck)
}

// shuffleTarget makes shufflePasses full passes over target, swapping every
// slot with a random one.
func (d *Deck) shuffleTarget(target []Card) {
	n := len(target)
	if n < 2 {
		return
	}
	for pass := 0; pass < shufflePasses; pass++ {
		for slot := 0; slot < n; slot++ {
			other := d.rng.Intn(n)
			target[slot], target[other] = target[other], target[slot]
		}
	}
}

// DealNext removes and returns the top (last) card of the deck.
func (d *Deck) DealNext() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckExhausted
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, nil
}

// AddToMuck adds a card to the muck.
func (d *Deck) AddToMuck(card Card) {
	d.muck = append(d.muck, card)
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// MuckCount returns the number of cards in the muck.
func (d *Deck) MuckCount() int {
	return len(d.muck)
}

// MoveMuckToDeck swaps the muck and the deck. Used when the deck is
// exhausted and the dealer elects to continue.
func (d *Deck) MoveMuckToDeck() {
	d.cards, d.muck = d.muck, d.cards
}
