package config

import (
	"fmt"
	"time"

	"storyteller/internal/game"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// ServerConfig represents the server configuration
type ServerConfig struct {
	Server ServerSettings `yaml:"server"`
	Game   GameSettings   `yaml:"game"`
	Agent  AgentSettings  `yaml:"agent"`
}

// ServerSettings contains HTTP and process settings
type ServerSettings struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"` // 0 for SSE support
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit"`      // requests per second
	RateLimitBurst int     `yaml:"rateLimitBurst"` // burst size

	MaxRequestSize int64  `yaml:"maxRequestSize"`
	CardsDir       string `yaml:"cardsDir"`
	PublicDir      string `yaml:"publicDir"`
	PublicURL      string `yaml:"publicURL"` // base for invite links, request host when empty

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// GameSettings contains room rules and lifetimes
type GameSettings struct {
	MinPlayersPerRoom int           `yaml:"minPlayersPerRoom"`
	MaxPlayersPerRoom int           `yaml:"maxPlayersPerRoom"`
	HandSize          int           `yaml:"handSize"`
	RoomCodeLength    int           `yaml:"roomCodeLength"`
	RoomTimeout       time.Duration `yaml:"roomTimeout"`
	SweepInterval     time.Duration `yaml:"sweepInterval"`
	ViewerTimeout     time.Duration `yaml:"viewerTimeout"`
}

// AgentSettings paces the synthetic players
type AgentSettings struct {
	HumanLead     time.Duration `yaml:"humanLead"`
	AgentLead     time.Duration `yaml:"agentLead"`
	TellBase      time.Duration `yaml:"tellBase"`
	TellJitter    time.Duration `yaml:"tellJitter"`
	SelectBase    time.Duration `yaml:"selectBase"`
	SelectStagger time.Duration `yaml:"selectStagger"`
	SelectJitter  time.Duration `yaml:"selectJitter"`
	VoteBase      time.Duration `yaml:"voteBase"`
	VoteStagger   time.Duration `yaml:"voteStagger"`
	VoteJitter    time.Duration `yaml:"voteJitter"`
}

// Timing converts the settings for the scheduler
func (a AgentSettings) Timing() game.AgentTiming {
	return game.AgentTiming{
		TellBase:      a.TellBase,
		TellJitter:    a.TellJitter,
		SelectBase:    a.SelectBase,
		SelectStagger: a.SelectStagger,
		SelectJitter:  a.SelectJitter,
		VoteBase:      a.VoteBase,
		VoteStagger:   a.VoteStagger,
		VoteJitter:    a.VoteJitter,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *ServerConfig {
	timing := game.DefaultAgentTiming()
	return &ServerConfig{
		Server: ServerSettings{
			Port:            "8766",
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // SSE streams stay open
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,

			RateLimit:      20,
			RateLimitBurst: 40,

			MaxRequestSize: 64 * 1024,
			CardsDir:       "cards",
			PublicDir:      "public",

			LogLevel:  "info",
			LogFormat: "text",
		},
		Game: GameSettings{
			MinPlayersPerRoom: 3,
			MaxPlayersPerRoom: 8,
			HandSize:          6,
			RoomCodeLength:    4,
			RoomTimeout:       30 * time.Minute,
			SweepInterval:     10 * time.Minute,
			ViewerTimeout:     15 * time.Second,
		},
		Agent: AgentSettings{
			HumanLead:     500 * time.Millisecond,
			AgentLead:     1000 * time.Millisecond,
			TellBase:      timing.TellBase,
			TellJitter:    timing.TellJitter,
			SelectBase:    timing.SelectBase,
			SelectStagger: timing.SelectStagger,
			SelectJitter:  timing.SelectJitter,
			VoteBase:      timing.VoteBase,
			VoteStagger:   timing.VoteStagger,
			VoteJitter:    timing.VoteJitter,
		},
	}
}

// Validate checks if the configuration is valid
func (c *ServerConfig) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("rateLimit must be positive")
	}
	if c.Server.MaxRequestSize <= 0 {
		return fmt.Errorf("maxRequestSize must be positive")
	}

	g := c.Game
	if g.MinPlayersPerRoom < 2 {
		return fmt.Errorf("minPlayersPerRoom must be at least 2")
	}
	if g.MinPlayersPerRoom > g.MaxPlayersPerRoom {
		return fmt.Errorf("minPlayersPerRoom cannot be greater than maxPlayersPerRoom")
	}
	if g.HandSize < 1 {
		return fmt.Errorf("handSize must be at least 1")
	}
	if g.HandSize > game.DeckSize {
		return fmt.Errorf("handSize cannot exceed the %d card deck", game.DeckSize)
	}
	if g.RoomCodeLength < 3 {
		return fmt.Errorf("roomCodeLength must be at least 3")
	}
	if g.RoomTimeout <= 0 || g.SweepInterval <= 0 {
		return fmt.Errorf("roomTimeout and sweepInterval must be positive")
	}
	if g.ViewerTimeout <= 0 {
		return fmt.Errorf("viewerTimeout must be positive")
	}

	a := c.Agent
	for name, d := range map[string]time.Duration{
		"humanLead": a.HumanLead, "agentLead": a.AgentLead,
		"tellBase": a.TellBase, "tellJitter": a.TellJitter,
		"selectBase": a.SelectBase, "selectStagger": a.SelectStagger, "selectJitter": a.SelectJitter,
		"voteBase": a.VoteBase, "voteStagger": a.VoteStagger, "voteJitter": a.VoteJitter,
	} {
		if d < 0 {
			return fmt.Errorf("agent %s cannot be negative", name)
		}
	}

	return nil
}

// RoomSettings returns the table limits for new rooms
func (c *ServerConfig) RoomSettings() game.RoomSettings {
	return game.RoomSettings{
		MinPlayers: c.Game.MinPlayersPerRoom,
		MaxPlayers: c.Game.MaxPlayersPerRoom,
		HandSize:   c.Game.HandSize,
	}
}
