package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"storyteller/internal/config"
	localMiddleware "storyteller/internal/middleware"
)

// RouterOptions allows customization of router setup for tests
type RouterOptions struct {
	DisableRateLimiting  bool
	DisableRequestLogger bool
	CustomMiddleware     []func(http.Handler) http.Handler
	RateLimiter          *localMiddleware.RateLimiter // built from config when nil
	CardsDir             string                       // defaults to cfg.Server.CardsDir
	PublicDir            string                       // defaults to cfg.Server.PublicDir
}

// SetupRouter creates the application router with all routes and middleware
func SetupRouter(h *Handler, cfg *config.ServerConfig, opts *RouterOptions) *chi.Mux {
	if opts == nil {
		opts = &RouterOptions{}
	}
	if opts.CardsDir == "" {
		opts.CardsDir = cfg.Server.CardsDir
	}
	if opts.PublicDir == "" {
		opts.PublicDir = cfg.Server.PublicDir
	}

	r := chi.NewRouter()

	// Chi's request logger, written through the zerolog logger
	if !opts.DisableRequestLogger {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  log.New(h.log, "", 0),
			NoColor: true,
		}))
	}
	r.Use(middleware.Recoverer)

	r.Use(localMiddleware.RequestSizeLimiter(cfg.Server.MaxRequestSize))
	r.Use(localMiddleware.SecurityHeaders())

	if !opts.DisableRateLimiting {
		rateLimiter := opts.RateLimiter
		if rateLimiter == nil {
			rateLimiter = localMiddleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitBurst)
		}
		r.Use(rateLimiter.Middleware())
	}

	for _, mw := range opts.CustomMiddleware {
		r.Use(mw)
	}

	r.Route("/api", func(r chi.Router) {
		// SSE streams stay open, everything else gets the request timeout
		r.Get("/room/{code}/events", ValidateSSERequest(h.StreamRoom))

		r.Group(func(r chi.Router) {
			if cfg.Server.RequestTimeout > 0 {
				r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
			}

			r.Post("/room/create", h.CreateRoom)
			r.Post("/room/join", h.JoinRoom)
			r.Post("/room/rejoin", h.Rejoin)

			r.Route("/room/{code}", func(r chi.Router) {
				r.Get("/state", h.State)
				r.Get("/qr", h.RoomQRCode)
				r.Post("/start", h.StartGame)
				r.Post("/story", h.SubmitStory)
				r.Post("/card", h.SubmitCard)
				r.Post("/vote", h.Vote)
				r.Post("/add-bot", h.AddAgent)
				r.Post("/leave", h.LeaveRoom)
				r.Post("/disband", h.DisbandRoom)
				r.Post("/next", h.NextRound)
			})

			r.Post("/viewer/heartbeat", h.ViewerHeartbeat)
			r.Get("/stats", h.Stats)
		})
	})

	// Health check endpoints (no auth required)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Card art and the web client
	r.Handle("/cards/*", http.StripPrefix("/cards/", http.FileServer(http.Dir(opts.CardsDir))))
	r.Handle("/*", http.FileServer(http.Dir(opts.PublicDir)))

	return r
}
