package game

import "time"

// PlayerSummary is the public roster entry
type PlayerSummary struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Score int        `json:"score"`
	Kind  PlayerKind `json:"type"`
	IsBot bool       `json:"isBot"`
}

// PlayerStatus adds per-round progress flags to the roster entry
type PlayerStatus struct {
	PlayerSummary
	IsStoryteller bool `json:"isStoryteller"`
	HasSubmitted  bool `json:"hasSubmitted"`
	HasVoted      bool `json:"hasVoted"`
}

// TableCard is a submitted card as shown on the table. Authorship and votes
// are only filled in during reveal.
type TableCard struct {
	DisplayNumber int      `json:"displayNumber"`
	Image         string   `json:"image"`
	PlayerID      string   `json:"playerId,omitempty"`
	PlayerName    string   `json:"playerName,omitempty"`
	IsStoryteller *bool    `json:"isStoryteller,omitempty"`
	Votes         []string `json:"votes,omitempty"`
}

// Snapshot is the full room state as seen by one player
type Snapshot struct {
	RoomCode        string          `json:"roomCode"`
	Phase           Phase           `json:"phase"`
	Round           int             `json:"round"`
	Players         []PlayerSummary `json:"players"`
	HostID          string          `json:"hostId"`
	StorytellerID   string          `json:"storytellerId,omitempty"`
	StorytellerName string          `json:"storytellerName,omitempty"`
	Story           string          `json:"story"`
	IsHost          bool            `json:"isHost"`
	PlayerID        string          `json:"playerId,omitempty"`
	Hand            []Card          `json:"hand"`
	Score           int             `json:"score"`
	SubmittedCount  int             `json:"submittedCount"`
	VotedCount      int             `json:"votedCount"`
	Cards           []TableCard     `json:"cards"`
	PlayerStatus    []PlayerStatus  `json:"playerStatus"`
	LastUpdate      int64           `json:"lastUpdate"`
}

// Poll returns the room as seen by playerID. When since is at or past the
// room's last update it returns nil and false: nothing changed.
func (r *Room) Poll(playerID string, since int64) (*Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.playerLocked(playerID); p != nil {
		p.LastSeen = time.Now()
	}
	if since > 0 && since >= r.LastUpdate {
		return nil, false
	}
	return r.snapshotLocked(playerID), true
}

// Rejoin re-attaches a returning player and returns the full state
func (r *Room) Rejoin(playerID string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRoomClosed
	}
	p := r.playerLocked(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	p.LastSeen = time.Now()
	return r.snapshotLocked(playerID), nil
}

func (r *Room) snapshotLocked(playerID string) *Snapshot {
	s := &Snapshot{
		RoomCode:       r.Code,
		Phase:          r.Phase,
		Round:          r.Round,
		HostID:         r.HostID,
		Story:          r.Story,
		IsHost:         playerID != "" && playerID == r.HostID,
		Hand:           []Card{},
		SubmittedCount: len(r.Submissions),
		VotedCount:     len(r.Votes),
		Players:        make([]PlayerSummary, 0, len(r.Players)),
		PlayerStatus:   make([]PlayerStatus, 0, len(r.Players)),
		LastUpdate:     r.LastUpdate,
	}

	if r.Phase != PhaseWaiting {
		s.StorytellerID = r.StorytellerID
		if st := r.playerLocked(r.StorytellerID); st != nil {
			s.StorytellerName = st.DisplayName
		}
	}

	for _, p := range r.Players {
		summary := PlayerSummary{ID: p.ID, Name: p.DisplayName, Score: p.Score, Kind: p.Kind, IsBot: p.IsAgent()}
		s.Players = append(s.Players, summary)
		_, voted := r.Votes[p.ID]
		s.PlayerStatus = append(s.PlayerStatus, PlayerStatus{
			PlayerSummary: summary,
			IsStoryteller: r.Phase != PhaseWaiting && p.ID == r.StorytellerID,
			HasSubmitted:  r.hasSubmittedLocked(p.ID),
			HasVoted:      voted,
		})
		if p.ID == playerID {
			s.PlayerID = p.ID
			s.Hand = p.HandCopy()
			s.Score = p.Score
		}
	}

	if r.Phase == PhaseVoting || r.Phase == PhaseReveal {
		s.Cards = r.tableLocked()
	}
	return s
}

func (r *Room) tableLocked() []TableCard {
	cards := make([]TableCard, 0, len(r.Submissions))
	for _, sub := range r.Submissions {
		tc := TableCard{DisplayNumber: sub.DisplayNumber, Image: sub.Card.Image}
		if r.Phase == PhaseReveal {
			isStoryteller := sub.PlayerID == r.StorytellerID
			tc.PlayerID = sub.PlayerID
			tc.IsStoryteller = &isStoryteller
			if owner := r.playerLocked(sub.PlayerID); owner != nil {
				tc.PlayerName = owner.DisplayName
			}
			// roster order keeps the voter list stable between polls
			tc.Votes = []string{}
			for _, p := range r.Players {
				if n, ok := r.Votes[p.ID]; ok && n == sub.DisplayNumber {
					tc.Votes = append(tc.Votes, p.Name)
				}
			}
		}
		cards = append(cards, tc)
	}
	return cards
}
