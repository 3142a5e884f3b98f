package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"storyteller/internal/config"
	"storyteller/internal/game"
	"storyteller/internal/store"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store   *store.MemoryStore
	config  *config.ServerConfig
	viewers *ViewerTracker
	log     zerolog.Logger

	// how often an SSE stream checks its room for changes
	streamInterval time.Duration
}

// New creates a new handler
func New(s *store.MemoryStore, cfg *config.ServerConfig, log zerolog.Logger) *Handler {
	return &Handler{
		store:          s,
		config:         cfg,
		viewers:        NewViewerTracker(cfg.Game.ViewerTimeout),
		log:            log.With().Str("component", "http").Logger(),
		streamInterval: 250 * time.Millisecond,
	}
}

// Store returns the handler's store (for testing)
func (h *Handler) Store() *store.MemoryStore {
	return h.store
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a game error onto an HTTP status
func statusFor(err error) int {
	switch game.KindOf(err) {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindInvalidState:
		if errors.Is(err, game.ErrAlreadySubmitted) || errors.Is(err, game.ErrAlreadyVoted) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case game.KindValidation:
		return http.StatusBadRequest
	}
	if errors.Is(err, errBadBody) || errors.Is(err, errBadSince) {
		return http.StatusBadRequest
	}
	if errors.Is(err, store.ErrCodeSpaceExhausted) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(game.KindOf(err))})
}

// decodeBody reads a JSON request body into v
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errBadBody
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

var (
	errBadBody  = errors.New("request body must be valid JSON")
	errBadSince = errors.New("since must be a unix millisecond timestamp")
)
