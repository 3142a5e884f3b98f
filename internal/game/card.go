package game

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// DeckSize is the number of distinct cards in the game
const DeckSize = 36

// Card is one illustrated card. Cards are values and never change identity.
type Card struct {
	ID    int    `json:"id" yaml:"id"`
	Image string `json:"image" yaml:"image"`
	Thumb string `json:"thumb" yaml:"thumb"`
	Full  string `json:"full" yaml:"full"`
}

// CardManifest is the YAML structure of the embedded card manifest
type CardManifest struct {
	Set       string `yaml:"set"`
	ImageBase string `yaml:"imageBase"`
	Cards     []Card `yaml:"cards"`
}

// CardCatalog holds the fixed id -> card mapping the deck is built from
type CardCatalog struct {
	cards []Card
}

// NewCardCatalog parses a card manifest. Cards missing image paths get the
// default /cards layout for their id.
func NewCardCatalog(manifest []byte) (*CardCatalog, error) {
	var m CardManifest
	if err := yaml.Unmarshal(manifest, &m); err != nil {
		return nil, fmt.Errorf("failed to parse card manifest: %w", err)
	}

	base := m.ImageBase
	if base == "" {
		base = "/cards"
	}

	seen := make(map[int]bool, len(m.Cards))
	cards := make([]Card, 0, len(m.Cards))
	for _, c := range m.Cards {
		if c.ID < 1 || c.ID > DeckSize {
			return nil, fmt.Errorf("card id %d out of range 1..%d", c.ID, DeckSize)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate card id %d", c.ID)
		}
		seen[c.ID] = true
		cards = append(cards, c.withDefaults(base))
	}
	if len(cards) != DeckSize {
		return nil, fmt.Errorf("card manifest has %d cards, want %d", len(cards), DeckSize)
	}

	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return &CardCatalog{cards: cards}, nil
}

// DefaultCardCatalog builds the standard 36 card catalog without a manifest
func DefaultCardCatalog() *CardCatalog {
	cards := make([]Card, 0, DeckSize)
	for i := 1; i <= DeckSize; i++ {
		cards = append(cards, Card{ID: i}.withDefaults("/cards"))
	}
	return &CardCatalog{cards: cards}
}

func (c Card) withDefaults(base string) Card {
	num := fmt.Sprintf("%02d", c.ID)
	if c.Image == "" {
		c.Image = fmt.Sprintf("%s/medium/card-%s.png", base, num)
	}
	if c.Thumb == "" {
		c.Thumb = fmt.Sprintf("%s/thumb/card-%s.png", base, num)
	}
	if c.Full == "" {
		c.Full = fmt.Sprintf("%s/card-%s.png", base, num)
	}
	return c
}

// Cards returns a copy of the catalog in id order
func (cc *CardCatalog) Cards() []Card {
	out := make([]Card, len(cc.cards))
	copy(out, cc.cards)
	return out
}

// Get returns the card with the given id
func (cc *CardCatalog) Get(id int) (Card, bool) {
	if id < 1 || id > len(cc.cards) {
		return Card{}, false
	}
	return cc.cards[id-1], true
}
