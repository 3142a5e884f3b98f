package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	datastar "github.com/starfederation/datastar-go/datastar"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	"storyteller/internal/game"
)

const keepaliveInterval = 30 * time.Second

// StreamRoom pushes the player's view of the room as datastar signals every
// time the room changes. Agent moves happen off the request path, so the
// stream watches the room's update stamp instead of waiting for an event.
func (h *Handler) StreamRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := chi.URLParam(r, "code")
	playerID := r.URL.Query().Get("playerId")

	room, err := h.store.GetRoom(roomCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if playerID != "" && room.GetPlayer(playerID) == nil {
		h.writeError(w, r, game.ErrPlayerNotFound)
		return
	}

	log := h.log.With().Str("room", room.Code).Str("player", playerID).Logger()
	sse := datastar.NewSSE(w, r)
	log.Debug().Msg("state stream opened")
	defer log.Debug().Msg("state stream closed")

	snap, _ := room.Poll(playerID, 0)
	if err := sse.MarshalAndPatchSignals(map[string]interface{}{"state": snap, "closed": false}); err != nil {
		log.Warn().Err(err).Msg("initial state push failed")
		return
	}
	last := snap.LastUpdate

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if err := sse.MarshalAndPatchSignals(map[string]interface{}{"heartbeat": time.Now().UnixMilli()}); err != nil {
				return
			}
		case <-ticker.C:
			if room.Closed() {
				sse.MarshalAndPatchSignals(map[string]interface{}{"closed": true})
				return
			}
			snap, changed := room.Poll(playerID, last)
			if !changed {
				continue
			}
			last = snap.LastUpdate
			if err := sse.MarshalAndPatchSignals(map[string]interface{}{"state": snap}); err != nil {
				log.Debug().Err(err).Msg("state push failed")
				return
			}
		}
	}
}

// RoomQRCode serves a PNG invite code that opens the join screen
func (h *Handler) RoomQRCode(w http.ResponseWriter, r *http.Request) {
	room, err := h.store.GetRoom(chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	png, err := generateQRCode(h.inviteURL(r, room.Code))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) inviteURL(r *http.Request, code string) string {
	base := h.config.Server.PublicURL
	if base == "" {
		base = getBaseURL(r)
	}
	return base + "/?room=" + url.QueryEscape(code)
}

// generateQRCode renders the URL as PNG bytes
func generateQRCode(content string) ([]byte, error) {
	qrc, err := qrcode.NewWith(content,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// the standard writer only targets files
	tmp, err := os.CreateTemp("", "invite-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpFile := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpFile)

	w, err := standard.New(tmpFile,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR code file: %w", err)
	}
	return data, nil
}

// getBaseURL constructs the base URL from the request
func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}
