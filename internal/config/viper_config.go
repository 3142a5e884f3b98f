package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	// Set config file details
	v.SetConfigName("server")
	v.SetConfigType("yaml")

	// Add config paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/storyteller")
	}

	// Enable environment variable binding
	// STORYTELLER_GAME_ROOMTIMEOUT overrides game.roomtimeout
	v.SetEnvPrefix("storyteller")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Short aliases for the common deployment knobs
	v.BindEnv("server.port", "STORYTELLER_SERVER_PORT", "PORT")
	v.BindEnv("server.host", "STORYTELLER_SERVER_HOST", "HOST")
	v.BindEnv("server.loglevel", "STORYTELLER_SERVER_LOGLEVEL", "LOG_LEVEL")
	v.BindEnv("server.logformat", "STORYTELLER_SERVER_LOGFORMAT", "LOG_FORMAT")
	v.BindEnv("server.ratelimit", "STORYTELLER_SERVER_RATELIMIT", "RATE_LIMIT")
	v.BindEnv("server.ratelimitburst", "STORYTELLER_SERVER_RATELIMITBURST", "RATE_LIMIT_BURST")
	v.BindEnv("server.maxrequestsize", "STORYTELLER_SERVER_MAXREQUESTSIZE", "MAX_REQUEST_SIZE")
	v.BindEnv("server.publicurl", "STORYTELLER_SERVER_PUBLICURL", "PUBLIC_URL")

	setDefaults(v, DefaultConfig())

	// Try to read config file (it's optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &ServerConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *ServerConfig) {
	// Server
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.readtimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writetimeout", d.Server.WriteTimeout)
	v.SetDefault("server.idletimeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdowntimeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.requesttimeout", d.Server.RequestTimeout)
	v.SetDefault("server.ratelimit", d.Server.RateLimit)
	v.SetDefault("server.ratelimitburst", d.Server.RateLimitBurst)
	v.SetDefault("server.maxrequestsize", d.Server.MaxRequestSize)
	v.SetDefault("server.cardsdir", d.Server.CardsDir)
	v.SetDefault("server.publicdir", d.Server.PublicDir)
	v.SetDefault("server.publicurl", d.Server.PublicURL)
	v.SetDefault("server.loglevel", d.Server.LogLevel)
	v.SetDefault("server.logformat", d.Server.LogFormat)

	// Game
	v.SetDefault("game.minplayersperroom", d.Game.MinPlayersPerRoom)
	v.SetDefault("game.maxplayersperroom", d.Game.MaxPlayersPerRoom)
	v.SetDefault("game.handsize", d.Game.HandSize)
	v.SetDefault("game.roomcodelength", d.Game.RoomCodeLength)
	v.SetDefault("game.roomtimeout", d.Game.RoomTimeout)
	v.SetDefault("game.sweepinterval", d.Game.SweepInterval)
	v.SetDefault("game.viewertimeout", d.Game.ViewerTimeout)

	// Agents
	v.SetDefault("agent.humanlead", d.Agent.HumanLead)
	v.SetDefault("agent.agentlead", d.Agent.AgentLead)
	v.SetDefault("agent.tellbase", d.Agent.TellBase)
	v.SetDefault("agent.telljitter", d.Agent.TellJitter)
	v.SetDefault("agent.selectbase", d.Agent.SelectBase)
	v.SetDefault("agent.selectstagger", d.Agent.SelectStagger)
	v.SetDefault("agent.selectjitter", d.Agent.SelectJitter)
	v.SetDefault("agent.votebase", d.Agent.VoteBase)
	v.SetDefault("agent.votestagger", d.Agent.VoteStagger)
	v.SetDefault("agent.votejitter", d.Agent.VoteJitter)
}
