package game

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ObligationKind is the action an agent owes the room
type ObligationKind string

const (
	ObligationTell   ObligationKind = "tell"
	ObligationSelect ObligationKind = "select"
	ObligationVote   ObligationKind = "vote"
)

// Obligation is one pending agent action, pinned to the room generation it was
// computed in. Order is the agent's position for staggering.
type Obligation struct {
	Kind       ObligationKind
	PlayerID   string
	Phase      Phase
	Generation uint64
	Order      int
}

// PendingObligations lists the actions agents currently owe the room
func (r *Room) PendingObligations() []Obligation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingObligationsLocked()
}

func (r *Room) pendingObligationsLocked() []Obligation {
	if r.closed {
		return nil
	}
	var out []Obligation
	switch r.Phase {
	case PhaseStorytelling:
		if p := r.playerLocked(r.StorytellerID); p != nil && p.IsAgent() {
			out = append(out, r.obligationLocked(ObligationTell, p.ID, 0))
		}
	case PhaseSelecting, PhaseVoting:
		kind := ObligationSelect
		if r.Phase == PhaseVoting {
			kind = ObligationVote
		}
		for _, p := range r.Players {
			if !p.IsAgent() || p.ID == r.StorytellerID || r.outstandingDoneLocked(kind, p.ID) {
				continue
			}
			out = append(out, r.obligationLocked(kind, p.ID, len(out)))
		}
	}
	return out
}

func (r *Room) obligationLocked(kind ObligationKind, playerID string, order int) Obligation {
	return Obligation{Kind: kind, PlayerID: playerID, Phase: r.Phase, Generation: r.generation, Order: order}
}

// outstandingDoneLocked reports whether the player already met this obligation.
// An empty hand owes no card.
func (r *Room) outstandingDoneLocked(kind ObligationKind, playerID string) bool {
	switch kind {
	case ObligationSelect:
		if r.hasSubmittedLocked(playerID) {
			return true
		}
		p := r.playerLocked(playerID)
		return p == nil || len(p.Hand) == 0
	case ObligationVote:
		_, voted := r.Votes[playerID]
		return voted
	}
	return false
}

// stillOwedLocked re-validates an obligation at fire time
func (r *Room) stillOwedLocked(ob Obligation) bool {
	if r.closed || r.Phase != ob.Phase || r.generation != ob.Generation {
		return false
	}
	p := r.playerLocked(ob.PlayerID)
	if p == nil || !p.IsAgent() {
		return false
	}
	if ob.Kind == ObligationTell {
		return p.ID == r.StorytellerID
	}
	return p.ID != r.StorytellerID && !r.outstandingDoneLocked(ob.Kind, p.ID)
}

func (r *Room) notifyAgentsLocked(by trigger) {
	if r.scheduler == nil {
		return
	}
	obligations := r.pendingObligationsLocked()
	if len(obligations) == 0 {
		return
	}
	lead := r.humanLead
	if by == byAgent {
		lead = r.agentLead
	}
	r.scheduler.Schedule(r, obligations, lead)
}

// ActForAgent performs an owed agent action with a random choice. It returns
// false when the obligation has lapsed, in which case nothing happens.
func (r *Room) ActForAgent(ob Obligation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.stillOwedLocked(ob) {
		return false, nil
	}
	p := r.playerLocked(ob.PlayerID)

	switch ob.Kind {
	case ObligationTell:
		if len(p.Hand) == 0 {
			return false, ErrCardNotInHand
		}
		card := p.Hand[rand.IntN(len(p.Hand))]
		hint := storyHints[rand.IntN(len(storyHints))]
		return true, r.submitStoryLocked(p.ID, card.ID, hint, byAgent)
	case ObligationSelect:
		if len(p.Hand) == 0 {
			return false, ErrCardNotInHand
		}
		card := p.Hand[rand.IntN(len(p.Hand))]
		return true, r.submitCardLocked(p.ID, card.ID, byAgent)
	case ObligationVote:
		choices := make([]int, 0, len(r.Submissions))
		for _, s := range r.Submissions {
			if s.PlayerID != p.ID {
				choices = append(choices, s.DisplayNumber)
			}
		}
		if len(choices) == 0 {
			return false, ErrNoSuchCard
		}
		return true, r.voteLocked(p.ID, choices[rand.IntN(len(choices))])
	}
	return false, fmt.Errorf("unknown obligation kind %q", ob.Kind)
}

// AgentTiming controls how long agents think. Each delay is
// base + order*stagger + rand[0, jitter).
type AgentTiming struct {
	TellBase      time.Duration
	TellJitter    time.Duration
	SelectBase    time.Duration
	SelectStagger time.Duration
	SelectJitter  time.Duration
	VoteBase      time.Duration
	VoteStagger   time.Duration
	VoteJitter    time.Duration
}

// DefaultAgentTiming paces agents like a person thinking for a second or two
func DefaultAgentTiming() AgentTiming {
	return AgentTiming{
		TellBase:      1500 * time.Millisecond,
		TellJitter:    1000 * time.Millisecond,
		SelectBase:    1000 * time.Millisecond,
		SelectStagger: 800 * time.Millisecond,
		SelectJitter:  500 * time.Millisecond,
		VoteBase:      1200 * time.Millisecond,
		VoteStagger:   600 * time.Millisecond,
		VoteJitter:    400 * time.Millisecond,
	}
}

// AgentScheduler fires delayed one-shot actions for agent players. Timers are
// never cancelled; a fired action that finds its obligation gone does nothing.
type AgentScheduler struct {
	timing  AgentTiming
	log     zerolog.Logger
	pending atomic.Int64
	stopped atomic.Bool
}

// NewAgentScheduler creates a scheduler
func NewAgentScheduler(timing AgentTiming, log zerolog.Logger) *AgentScheduler {
	return &AgentScheduler{timing: timing, log: log}
}

// Schedule arms one timer per obligation
func (s *AgentScheduler) Schedule(r *Room, obligations []Obligation, lead time.Duration) {
	if s.stopped.Load() {
		return
	}
	for _, ob := range obligations {
		s.pending.Add(1)
		time.AfterFunc(lead+s.delay(ob), func() {
			defer s.pending.Add(-1)
			s.fire(r, ob)
		})
	}
}

// Pending returns the number of armed timers that have not fired
func (s *AgentScheduler) Pending() int64 {
	return s.pending.Load()
}

// Stop makes every future fire a no-op
func (s *AgentScheduler) Stop() {
	s.stopped.Store(true)
}

func (s *AgentScheduler) fire(r *Room, ob Obligation) {
	if s.stopped.Load() {
		return
	}
	acted, err := r.ActForAgent(ob)
	if err != nil {
		s.log.Warn().Err(err).Str("room", r.Code).Str("agent", ob.PlayerID).Str("kind", string(ob.Kind)).Msg("agent action rejected")
		return
	}
	if acted {
		s.log.Debug().Str("room", r.Code).Str("agent", ob.PlayerID).Str("kind", string(ob.Kind)).Msg("agent acted")
	}
}

func (s *AgentScheduler) delay(ob Obligation) time.Duration {
	t := s.timing
	switch ob.Kind {
	case ObligationTell:
		return t.TellBase + jitter(t.TellJitter)
	case ObligationSelect:
		return t.SelectBase + time.Duration(ob.Order)*t.SelectStagger + jitter(t.SelectJitter)
	default:
		return t.VoteBase + time.Duration(ob.Order)*t.VoteStagger + jitter(t.VoteJitter)
	}
}

func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
