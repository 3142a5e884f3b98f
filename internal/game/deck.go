package game

import "math/rand/v2"

// Deck is the ordered pile of undealt cards. The front is the top.
type Deck struct {
	cards []Card
}

// BuildDeck returns every catalog card in a fresh random order
func BuildDeck(catalog *CardCatalog) *Deck {
	cards := catalog.Cards()
	Shuffle(cards)
	return &Deck{cards: cards}
}

// Len returns the number of undealt cards
func (d *Deck) Len() int {
	return len(d.cards)
}

// Deal removes up to n cards from the top. Fewer are returned when the deck
// runs out; the deck is never reshuffled here.
func (d *Deck) Deal(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	if n <= 0 {
		return []Card{}
	}
	dealt := make([]Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt
}

// Recycle shuffles the given cards and puts them at the bottom
func (d *Deck) Recycle(cards []Card) {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	Shuffle(shuffled)
	d.cards = append(d.cards, shuffled...)
}

// Return puts cards at the bottom in the given order
func (d *Deck) Return(cards []Card) {
	d.cards = append(d.cards, cards...)
}

// Shuffle is an in-place Fisher-Yates shuffle
func Shuffle[T any](s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
