package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"storyteller/internal/config"
	"storyteller/internal/game"
	"storyteller/internal/store"
)

// newTestHandler creates a handler with default test configuration
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	s := store.NewMemoryStore(cfg, game.DefaultCardCatalog(), zerolog.Nop())
	t.Cleanup(s.Scheduler().Stop)
	h := New(s, cfg, zerolog.Nop())
	h.streamInterval = 10 * time.Millisecond
	return h
}

// setupTestRouter creates a router without rate limiting or request logs
func setupTestRouter(h *Handler) *chi.Mux {
	return SetupRouter(h, h.config, &RouterOptions{
		DisableRateLimiting:  true,
		DisableRequestLogger: true,
		CardsDir:             "testdata",
		PublicDir:            "testdata",
	})
}

// doJSON sends body as JSON and decodes the reply into out when out is non-nil
func doJSON(t *testing.T, router http.Handler, method, path string, body, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

type seatedTable struct {
	code   string
	host   seatResponse
	guests []seatResponse
}

// seatTable creates a room and joins guests human players
func seatTable(t *testing.T, router http.Handler, guests int) seatedTable {
	t.Helper()
	var table seatedTable
	w := doJSON(t, router, "POST", "/api/room/create", map[string]string{"playerName": "Ada"}, &table.host)
	require.Equal(t, http.StatusOK, w.Code)
	table.code = table.host.RoomCode

	names := []string{"Bo", "Cy", "Di", "Ed", "Flo", "Gus", "Hal"}
	for i := 0; i < guests; i++ {
		var seat seatResponse
		w := doJSON(t, router, "POST", "/api/room/join", map[string]string{
			"roomCode":   table.code,
			"playerName": names[i],
		}, &seat)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		table.guests = append(table.guests, seat)
	}
	return table
}

func (st seatedTable) path(action string) string {
	return "/api/room/" + st.code + "/" + action
}
