package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"storyteller"
	"storyteller/internal/config"
	"storyteller/internal/game"
	"storyteller/internal/handlers"
	localMiddleware "storyteller/internal/middleware"
	"storyteller/internal/store"
)

// limiterIdle is how long a client can be quiet before its limiter is dropped
const limiterIdle = 10 * time.Minute

// App wires the store, handlers and router together
type App struct {
	cfg     *config.ServerConfig
	log     zerolog.Logger
	store   *store.MemoryStore
	limiter *localMiddleware.RateLimiter
	router  http.Handler
}

// SetupServer creates and configures the server
func SetupServer(cfg *config.ServerConfig, log zerolog.Logger) (*App, error) {
	catalog, err := game.NewCardCatalog(storyteller.CardManifestYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load card manifest: %w", err)
	}

	gameStore := store.NewMemoryStore(cfg, catalog, log)
	h := handlers.New(gameStore, cfg, log)
	limiter := localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)

	return &App{
		cfg:     cfg,
		log:     log,
		store:   gameStore,
		limiter: limiter,
		router:  handlers.SetupRouter(h, cfg, &handlers.RouterOptions{RateLimiter: limiter}),
	}, nil
}

// Handler returns the HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// RunBackground starts the idle room sweep and rate limiter pruning until ctx is done
func (a *App) RunBackground(ctx context.Context) {
	a.store.StartSweeper(ctx, a.cfg.Game.SweepInterval)

	go func() {
		ticker := time.NewTicker(limiterIdle)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := a.limiter.Prune(limiterIdle); n > 0 {
					a.log.Debug().Int("pruned", n).Int("tracked", a.limiter.Size()).Msg("rate limiters pruned")
				}
			}
		}
	}()
}

// Stop closes every room and stops agent timers from acting
func (a *App) Stop() {
	a.store.Scheduler().Stop()
	for _, room := range a.store.Rooms() {
		a.store.DeleteRoom(room.Code)
	}
}
