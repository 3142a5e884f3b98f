package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"storyteller/internal/config"
	"storyteller/internal/game"
)

// codeAlphabet leaves out I, O, 0 and 1 so codes can be read aloud
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const maxCodeAttempts = 32

// ErrCodeSpaceExhausted is returned when no free room code was found
var ErrCodeSpaceExhausted = errors.New("could not allocate a unique room code")

// MemoryStore is the process-wide registry of live rooms
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room

	catalog    *game.CardCatalog
	scheduler  *game.AgentScheduler
	settings   game.RoomSettings
	codeLength int
	roomTTL    time.Duration
	humanLead  time.Duration
	agentLead  time.Duration
	log        zerolog.Logger

	// overridable in tests
	generateCode func(length int) string
	now          func() time.Time
}

// NewMemoryStore creates a registry configured from the game and agent settings
func NewMemoryStore(cfg *config.ServerConfig, catalog *game.CardCatalog, log zerolog.Logger) *MemoryStore {
	agents := game.NewAgentScheduler(cfg.Agent.Timing(), log.With().Str("component", "agents").Logger())
	return &MemoryStore{
		rooms:        make(map[string]*game.Room),
		catalog:      catalog,
		scheduler:    agents,
		settings:     cfg.RoomSettings(),
		codeLength:   cfg.Game.RoomCodeLength,
		roomTTL:      cfg.Game.RoomTimeout,
		humanLead:    cfg.Agent.HumanLead,
		agentLead:    cfg.Agent.AgentLead,
		log:          log.With().Str("component", "store").Logger(),
		generateCode: generateRoomCode,
		now:          time.Now,
	}
}

// Scheduler returns the agent scheduler shared by every room
func (s *MemoryStore) Scheduler() *game.AgentScheduler {
	return s.scheduler
}

// CreateRoom opens a room with the given player as host
func (s *MemoryStore) CreateRoom(host *game.Player) (*game.Room, error) {
	if strings.TrimSpace(host.Name) == "" {
		return nil, game.ErrMissingName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := ""
	for i := 0; i < maxCodeAttempts; i++ {
		candidate := s.generateCode(s.codeLength)
		if _, exists := s.rooms[candidate]; !exists {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, ErrCodeSpaceExhausted
	}

	room := game.NewRoom(code, host, s.catalog,
		game.WithSettings(s.settings),
		game.WithScheduler(s.scheduler, s.humanLead, s.agentLead),
		game.WithLogger(s.log),
		game.WithOnClose(s.removeClosed),
	)
	s.rooms[code] = room
	s.log.Info().Str("room", code).Str("host", host.Name).Msg("room created")
	return room, nil
}

// GetRoom retrieves a live room by code, case-insensitively
func (s *MemoryStore) GetRoom(code string) (*game.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, game.ErrMissingRoomCode
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return nil, fmt.Errorf("room %s: %w", code, game.ErrRoomNotFound)
	}
	return room, nil
}

// DeleteRoom closes and forgets a room
func (s *MemoryStore) DeleteRoom(code string) {
	code = strings.ToUpper(code)
	s.mu.Lock()
	room, exists := s.rooms[code]
	delete(s.rooms, code)
	s.mu.Unlock()

	if exists {
		room.Close()
	}
}

// removeClosed drops a room that closed itself, but only if the code still
// maps to that same room
func (s *MemoryStore) removeClosed(room *game.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.rooms[room.Code]; ok && current == room {
		delete(s.rooms, room.Code)
		s.log.Info().Str("room", room.Code).Msg("room removed")
	}
}

// Rooms returns a snapshot of the live rooms
func (s *MemoryStore) Rooms() []*game.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*game.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// RoomCount returns the number of live rooms
func (s *MemoryStore) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Sweep evicts rooms with no mutation for longer than the room timeout and
// returns their codes
func (s *MemoryStore) Sweep(now time.Time) []string {
	cutoff := now.Add(-s.roomTTL).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for code, room := range s.rooms {
		if room.LastUpdated() < cutoff {
			delete(s.rooms, code)
			room.Close()
			evicted = append(evicted, code)
			s.log.Info().Str("room", code).Msg("room expired")
		}
	}
	return evicted
}

// StartSweeper runs Sweep on every tick until ctx is done
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := s.Sweep(s.now()); len(evicted) > 0 {
					s.log.Info().Int("evicted", len(evicted)).Int("live", s.RoomCount()).Msg("sweep finished")
				}
			}
		}
	}()
}

// generateRoomCode generates a random code from the unambiguous alphabet
func generateRoomCode(length int) string {
	b := make([]byte, length)
	rand.Read(b)

	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}

	return string(b)
}
