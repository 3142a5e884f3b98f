package game

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Phase is the room's position in the round cycle
type Phase string

const (
	PhaseWaiting      Phase = "waiting"
	PhaseStorytelling Phase = "storytelling"
	PhaseSelecting    Phase = "selecting"
	PhaseVoting       Phase = "voting"
	PhaseReveal       Phase = "reveal"
)

// Submission is a card played in response to the story
type Submission struct {
	PlayerID      string
	Card          Card
	DisplayNumber int
}

// RoomSettings bounds a room
type RoomSettings struct {
	MinPlayers int
	MaxPlayers int
	HandSize   int
}

// DefaultRoomSettings are the standard table limits
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{MinPlayers: 3, MaxPlayers: 8, HandSize: 6}
}

// Scheduler arranges synthetic actions for agent obligations
type Scheduler interface {
	Schedule(r *Room, obligations []Obligation, lead time.Duration)
}

// trigger says who caused a transition; it sets the lead time before agents react
type trigger int

const (
	byHuman trigger = iota
	byAgent
)

// Room is one game session. All fields are guarded by mu.
type Room struct {
	Code             string
	HostID           string
	Players          []*Player
	Deck             *Deck
	Phase            Phase
	Round            int
	StorytellerIndex int
	StorytellerID    string
	Story            string
	StorytellerCard  int
	Submissions      []Submission
	Votes            map[string]int
	LastUpdate       int64
	CreatedAt        time.Time

	settings   RoomSettings
	scheduler  Scheduler
	humanLead  time.Duration
	agentLead  time.Duration
	onClose    func(*Room)
	closed     bool
	generation uint64
	log        zerolog.Logger

	mu sync.Mutex
}

// RoomOption configures a new room
type RoomOption func(*Room)

// WithSettings overrides the table limits
func WithSettings(s RoomSettings) RoomOption {
	return func(r *Room) { r.settings = s }
}

// WithScheduler attaches the agent scheduler and the delays before it reacts to
// human and agent triggered transitions
func WithScheduler(s Scheduler, humanLead, agentLead time.Duration) RoomOption {
	return func(r *Room) {
		r.scheduler = s
		r.humanLead = humanLead
		r.agentLead = agentLead
	}
}

// WithLogger sets the room logger
func WithLogger(l zerolog.Logger) RoomOption {
	return func(r *Room) { r.log = l }
}

// WithOnClose registers a callback run after the room closes. It is called
// without the room lock held.
func WithOnClose(fn func(*Room)) RoomOption {
	return func(r *Room) { r.onClose = fn }
}

// NewRoom creates a waiting room with the host seated and dealt a hand
func NewRoom(code string, host *Player, catalog *CardCatalog, opts ...RoomOption) *Room {
	r := &Room{
		Code:      strings.ToUpper(code),
		HostID:    host.ID,
		Deck:      BuildDeck(catalog),
		Phase:     PhaseWaiting,
		Votes:     make(map[string]int),
		CreatedAt: time.Now(),
		settings:  DefaultRoomSettings(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("room", r.Code).Logger()

	host.Hand = r.Deck.Deal(r.settings.HandSize)
	r.Players = []*Player{host}
	r.touchLocked()
	return r
}

// AddPlayer seats a new player and deals their hand
func (r *Room) AddPlayer(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingName
	}
	if err := r.checkJoinableLocked(); err != nil {
		return err
	}
	p.Hand = r.Deck.Deal(r.settings.HandSize)
	r.Players = append(r.Players, p)
	r.touchLocked()
	r.log.Info().Str("player", p.Name).Int("seats", len(r.Players)).Msg("player joined")
	return nil
}

// AddAgent seats an agent player. Only the host may add agents.
func (r *Room) AddAgent(requesterID string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRoomClosed
	}
	if requesterID != r.HostID {
		return nil, ErrNotHost
	}
	if err := r.checkJoinableLocked(); err != nil {
		return nil, err
	}

	bot := NewPlayer(r.pickAgentNameLocked(), KindBot)
	bot.Hand = r.Deck.Deal(r.settings.HandSize)
	r.Players = append(r.Players, bot)
	r.touchLocked()
	r.log.Info().Str("agent", bot.Name).Msg("agent joined")
	return bot, nil
}

func (r *Room) checkJoinableLocked() error {
	if r.closed {
		return ErrRoomClosed
	}
	if r.Phase != PhaseWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.Players) >= r.settings.MaxPlayers {
		return ErrRoomFull
	}
	return nil
}

// Start begins round one. Host only, needs the minimum table size.
func (r *Room) Start(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	if requesterID != r.HostID {
		return ErrNotHost
	}
	if r.Phase != PhaseWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.Players) < r.settings.MinPlayers {
		return ErrNotEnoughPlayers
	}

	r.refillHandsLocked()
	r.Round = 1
	r.StorytellerIndex = 0
	r.StorytellerID = r.Players[0].ID
	r.resetRoundLocked()
	r.enterPhaseLocked(PhaseStorytelling)
	r.touchLocked()
	r.log.Info().Int("players", len(r.Players)).Msg("game started")
	r.notifyAgentsLocked(byHuman)
	return nil
}

// SubmitStory records the storyteller's clue and card
func (r *Room) SubmitStory(playerID string, cardID int, story string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submitStoryLocked(playerID, cardID, story, byHuman)
}

func (r *Room) submitStoryLocked(playerID string, cardID int, story string, by trigger) error {
	if r.closed {
		return ErrRoomClosed
	}
	if r.Phase != PhaseStorytelling {
		return ErrWrongPhase
	}
	p := r.playerLocked(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.ID != r.StorytellerID {
		return ErrNotStoryteller
	}
	story = strings.TrimSpace(story)
	if story == "" {
		return ErrMissingStory
	}
	card, ok := p.takeCard(cardID)
	if !ok {
		return ErrCardNotInHand
	}

	r.Story = story
	r.StorytellerCard = card.ID
	r.Submissions = []Submission{{PlayerID: p.ID, Card: card}}
	r.enterPhaseLocked(PhaseSelecting)
	r.touchLocked()
	r.log.Info().Str("storyteller", p.Name).Str("story", story).Msg("story told")
	r.notifyAgentsLocked(by)
	return nil
}

// SubmitCard plays a non-storyteller's card for the current story
func (r *Room) SubmitCard(playerID string, cardID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submitCardLocked(playerID, cardID, byHuman)
}

func (r *Room) submitCardLocked(playerID string, cardID int, by trigger) error {
	if r.closed {
		return ErrRoomClosed
	}
	if r.Phase != PhaseSelecting {
		return ErrWrongPhase
	}
	p := r.playerLocked(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if r.hasSubmittedLocked(playerID) {
		return ErrAlreadySubmitted
	}
	card, ok := p.takeCard(cardID)
	if !ok {
		return ErrCardNotInHand
	}

	r.Submissions = append(r.Submissions, Submission{PlayerID: p.ID, Card: card})
	r.touchLocked()
	r.log.Info().Str("player", p.Name).Msgf("card submitted (%d/%d)", len(r.Submissions), len(r.Players))
	r.closeSelectingLocked(by)
	return nil
}

// closeSelectingLocked moves to voting once every seat has a card down. A seat
// with an empty hand has nothing to play and does not hold the table up.
func (r *Room) closeSelectingLocked(by trigger) {
	if r.Phase != PhaseSelecting || !r.selectionDoneLocked() {
		return
	}
	Shuffle(r.Submissions)
	for i := range r.Submissions {
		r.Submissions[i].DisplayNumber = i + 1
	}
	r.Votes = make(map[string]int)
	r.enterPhaseLocked(PhaseVoting)
	r.touchLocked()
	r.log.Info().Msg("all cards in, voting open")
	r.notifyAgentsLocked(by)
	r.closeVotingLocked()
}

// Vote records a guess at the storyteller's card by display number
func (r *Room) Vote(playerID string, displayNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.voteLocked(playerID, displayNumber)
}

func (r *Room) voteLocked(playerID string, displayNumber int) error {
	if r.closed {
		return ErrRoomClosed
	}
	if r.Phase != PhaseVoting {
		return ErrWrongPhase
	}
	p := r.playerLocked(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.ID == r.StorytellerID {
		return ErrStorytellerCantAct
	}
	if _, voted := r.Votes[playerID]; voted {
		return ErrAlreadyVoted
	}
	target := r.submissionByNumberLocked(displayNumber)
	if target == nil {
		return ErrNoSuchCard
	}
	if target.PlayerID == playerID {
		return ErrSelfVote
	}

	r.Votes[playerID] = displayNumber
	r.touchLocked()
	r.log.Info().Str("player", p.Name).Int("card", displayNumber).Msg("vote cast")
	r.closeVotingLocked()
	return nil
}

// closeVotingLocked scores the round once every guesser has voted
func (r *Room) closeVotingLocked() {
	if r.Phase != PhaseVoting || len(r.Votes) < len(r.Players)-1 {
		return
	}
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	deltas := CalculateScores(r.StorytellerID, r.Submissions, r.Votes, ids)
	for _, p := range r.Players {
		p.Score += deltas[p.ID]
	}
	r.enterPhaseLocked(PhaseReveal)
	r.touchLocked()
	r.log.Info().Interface("deltas", deltas).Msg("round scored")
}

// NextRound recycles the played cards, refills hands and rotates the storyteller
func (r *Room) NextRound(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	if requesterID != r.HostID {
		return ErrNotHost
	}
	if r.Phase != PhaseReveal {
		return ErrWrongPhase
	}

	played := make([]Card, len(r.Submissions))
	for i, s := range r.Submissions {
		played[i] = s.Card
	}
	r.Deck.Recycle(played)
	r.refillHandsLocked()

	r.Round++
	r.StorytellerIndex = (r.StorytellerIndex + 1) % len(r.Players)
	r.StorytellerID = r.Players[r.StorytellerIndex].ID
	r.resetRoundLocked()
	r.enterPhaseLocked(PhaseStorytelling)
	r.touchLocked()
	r.log.Info().Int("round", r.Round).Str("storyteller", r.Players[r.StorytellerIndex].Name).Msg("next round")
	r.notifyAgentsLocked(byHuman)
	return nil
}

// refillHandsLocked deals one card at a time to the shortest hand, earliest
// seat first, until every hand is full or the deck is empty
func (r *Room) refillHandsLocked() {
	for r.Deck.Len() > 0 {
		var short *Player
		for _, p := range r.Players {
			if len(p.Hand) < r.settings.HandSize && (short == nil || len(p.Hand) < len(short.Hand)) {
				short = p
			}
		}
		if short == nil {
			return
		}
		short.Hand = append(short.Hand, r.Deck.Deal(1)...)
	}
}

// Leave removes a player and returns their hand to the deck. It reports whether
// the room closed as a result: no seats left, or only agents left.
func (r *Room) Leave(playerID string) (bool, error) {
	r.mu.Lock()
	closed, err := r.leaveLocked(playerID)
	r.mu.Unlock()

	if closed && r.onClose != nil {
		r.onClose(r)
	}
	return closed, err
}

func (r *Room) leaveLocked(playerID string) (bool, error) {
	if r.closed {
		return false, ErrRoomClosed
	}
	idx := r.indexLocked(playerID)
	if idx < 0 {
		return false, ErrPlayerNotFound
	}
	p := r.Players[idx]

	r.Deck.Return(p.Hand)
	p.Hand = nil
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	delete(r.Votes, playerID)
	r.touchLocked()
	r.log.Info().Str("player", p.Name).Msg("player left")

	if !r.hasHumanLocked() {
		r.closeLocked()
		r.log.Info().Msg("no humans left, room closed")
		return true, nil
	}
	if r.HostID == playerID {
		r.HostID = r.firstHumanLocked().ID
		r.log.Info().Str("host", r.HostID).Msg("host reassigned")
	}

	if r.Phase == PhaseWaiting {
		return false, nil
	}
	if playerID == r.StorytellerID {
		r.storytellerLeftLocked(idx)
		return false, nil
	}

	if idx < r.StorytellerIndex {
		r.StorytellerIndex--
	}
	if r.StorytellerIndex >= len(r.Players) {
		r.StorytellerIndex = 0
	}
	switch r.Phase {
	case PhaseSelecting:
		r.withdrawSubmissionLocked(playerID)
		r.closeSelectingLocked(byHuman)
	case PhaseVoting:
		r.closeVotingLocked()
	}
	return false, nil
}

// storytellerLeftLocked keeps rotation pointed at whoever followed the departed
// storyteller. A round still in progress is abandoned and replayed with them.
func (r *Room) storytellerLeftLocked(idx int) {
	next := idx % len(r.Players)

	if r.Phase == PhaseReveal {
		// scoring is done, NextRound advances onto the follower
		r.StorytellerIndex = (next - 1 + len(r.Players)) % len(r.Players)
		return
	}

	for _, s := range r.Submissions {
		if owner := r.playerLocked(s.PlayerID); owner != nil {
			owner.Hand = append(owner.Hand, s.Card)
		} else {
			r.Deck.Return([]Card{s.Card})
		}
	}
	r.refillHandsLocked()
	r.StorytellerIndex = next
	r.StorytellerID = r.Players[next].ID
	r.resetRoundLocked()
	r.enterPhaseLocked(PhaseStorytelling)
	r.log.Info().Str("storyteller", r.Players[next].Name).Msg("storyteller left, round restarted")
	r.notifyAgentsLocked(byHuman)
}

func (r *Room) withdrawSubmissionLocked(playerID string) {
	for i, s := range r.Submissions {
		if s.PlayerID == playerID {
			r.Deck.Return([]Card{s.Card})
			r.Submissions = append(r.Submissions[:i], r.Submissions[i+1:]...)
			return
		}
	}
}

// Disband closes the room for everyone. Host only.
func (r *Room) Disband(requesterID string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRoomClosed
	}
	if requesterID != r.HostID {
		r.mu.Unlock()
		return ErrNotHost
	}
	r.closeLocked()
	r.log.Info().Msg("room disbanded by host")
	r.mu.Unlock()

	if r.onClose != nil {
		r.onClose(r)
	}
	return nil
}

// Close marks the room closed without a requester, as the idle sweep does
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closeLocked()
	}
}

func (r *Room) closeLocked() {
	r.closed = true
	r.generation++
	r.touchLocked()
}

// Closed reports whether the room has been disbanded, emptied or swept
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// LastUpdated returns the sync stamp of the latest mutation
func (r *Room) LastUpdated() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.LastUpdate
}

// CurrentPhase returns the phase
func (r *Room) CurrentPhase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Phase
}

// Occupancy returns the phase and the number of human seats together
func (r *Room) Occupancy() (Phase, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.Players {
		if !p.IsAgent() {
			n++
		}
	}
	return r.Phase, n
}

// GetPlayer returns a copy of the player, or nil when not seated
func (r *Room) GetPlayer(playerID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.playerLocked(playerID)
	if p == nil {
		return nil
	}
	cp := *p
	cp.Hand = p.HandCopy()
	return &cp
}

// touchLocked advances the sync stamp; it never repeats or goes backwards
func (r *Room) touchLocked() {
	now := time.Now().UnixMilli()
	if now <= r.LastUpdate {
		now = r.LastUpdate + 1
	}
	r.LastUpdate = now
}

func (r *Room) enterPhaseLocked(p Phase) {
	r.Phase = p
	r.generation++
}

func (r *Room) resetRoundLocked() {
	r.Story = ""
	r.StorytellerCard = 0
	r.Submissions = nil
	r.Votes = make(map[string]int)
}

func (r *Room) playerLocked(playerID string) *Player {
	if i := r.indexLocked(playerID); i >= 0 {
		return r.Players[i]
	}
	return nil
}

func (r *Room) indexLocked(playerID string) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) hasSubmittedLocked(playerID string) bool {
	for _, s := range r.Submissions {
		if s.PlayerID == playerID {
			return true
		}
	}
	return false
}

func (r *Room) selectionDoneLocked() bool {
	for _, p := range r.Players {
		if p.ID != r.StorytellerID && !r.outstandingDoneLocked(ObligationSelect, p.ID) {
			return false
		}
	}
	return true
}

func (r *Room) submissionByNumberLocked(n int) *Submission {
	if n < 1 {
		return nil
	}
	for i := range r.Submissions {
		if r.Submissions[i].DisplayNumber == n {
			return &r.Submissions[i]
		}
	}
	return nil
}

func (r *Room) hasHumanLocked() bool {
	return r.firstHumanLocked() != nil
}

func (r *Room) firstHumanLocked() *Player {
	for _, p := range r.Players {
		if !p.IsAgent() {
			return p
		}
	}
	return nil
}
