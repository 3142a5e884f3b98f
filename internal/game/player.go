package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlayerKind says who drives a seat
type PlayerKind string

const (
	KindHuman   PlayerKind = "human"
	KindLobster PlayerKind = "lobster"
	KindBot     PlayerKind = "bot"
)

// ParsePlayerKind maps a client supplied kind, defaulting to human
func ParsePlayerKind(s string) PlayerKind {
	switch PlayerKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindLobster:
		return KindLobster
	case KindBot:
		return KindBot
	default:
		return KindHuman
	}
}

func (k PlayerKind) marker() string {
	switch k {
	case KindLobster:
		return "🦞"
	case KindBot:
		return "🤖"
	default:
		return "👤"
	}
}

// Player represents a seat in a room
type Player struct {
	ID          string
	Name        string
	DisplayName string
	Kind        PlayerKind
	Hand        []Card
	Score       int
	JoinedAt    time.Time
	LastSeen    time.Time
}

// NewPlayer creates a player with a fresh opaque id
func NewPlayer(name string, kind PlayerKind) *Player {
	prefix := "p_"
	if kind == KindBot {
		prefix = "bot_"
	}
	now := time.Now()
	return &Player{
		ID:          prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Name:        name,
		DisplayName: fmt.Sprintf("%s(%s)", name, kind.marker()),
		Kind:        kind,
		Hand:        []Card{},
		JoinedAt:    now,
		LastSeen:    now,
	}
}

// IsAgent reports whether the scheduler acts for this player
func (p *Player) IsAgent() bool {
	return p.Kind == KindBot
}

// HasCard reports whether the card is in the player's hand
func (p *Player) HasCard(cardID int) bool {
	return p.cardIndex(cardID) >= 0
}

func (p *Player) cardIndex(cardID int) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// takeCard removes a card from the hand
func (p *Player) takeCard(cardID int) (Card, bool) {
	i := p.cardIndex(cardID)
	if i < 0 {
		return Card{}, false
	}
	card := p.Hand[i]
	p.Hand = append(p.Hand[:i:i], p.Hand[i+1:]...)
	return card, true
}

// HandCopy returns a copy of the hand safe to hand out of the room lock
func (p *Player) HandCopy() []Card {
	out := make([]Card, len(p.Hand))
	copy(out, p.Hand)
	return out
}
