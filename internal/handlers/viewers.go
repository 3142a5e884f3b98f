package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"storyteller/internal/game"
)

// ViewerTracker counts anonymous page visitors by heartbeat
type ViewerTracker struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	timeout  time.Duration
}

// NewViewerTracker creates a tracker that forgets viewers silent for timeout
func NewViewerTracker(timeout time.Duration) *ViewerTracker {
	return &ViewerTracker{
		lastSeen: make(map[string]time.Time),
		timeout:  timeout,
	}
}

// Heartbeat records a visit and returns the live viewer count
func (vt *ViewerTracker) Heartbeat(viewerID string, now time.Time) int {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	if viewerID != "" {
		vt.lastSeen[viewerID] = now
	}
	vt.pruneLocked(now)
	return len(vt.lastSeen)
}

// Count returns the live viewer count
func (vt *ViewerTracker) Count(now time.Time) int {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	vt.pruneLocked(now)
	return len(vt.lastSeen)
}

func (vt *ViewerTracker) pruneLocked(now time.Time) {
	for id, seen := range vt.lastSeen {
		if now.Sub(seen) > vt.timeout {
			delete(vt.lastSeen, id)
		}
	}
}

type heartbeatRequest struct {
	ViewerID string `json:"viewerId"`
}

type heartbeatResponse struct {
	Success  bool   `json:"success"`
	ViewerID string `json:"viewerId"`
	Viewers  int    `json:"viewers"`
}

// ViewerHeartbeat keeps a page visitor counted. Clients without an id get one.
func (h *Handler) ViewerHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ViewerID == "" {
		req.ViewerID = uuid.NewString()
	}

	writeJSON(w, http.StatusOK, heartbeatResponse{
		Success:  true,
		ViewerID: req.ViewerID,
		Viewers:  h.viewers.Heartbeat(req.ViewerID, time.Now()),
	})
}

type statsResponse struct {
	Waiting       int   `json:"waiting"`
	Playing       int   `json:"playing"`
	Total         int   `json:"total"`
	Rooms         int   `json:"rooms"`
	Viewers       int   `json:"viewers"`
	AgentsPending int64 `json:"agentsPending"`
}

// Stats reports how many humans are waiting in lobbies and playing
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var resp statsResponse
	for _, room := range h.store.Rooms() {
		phase, humans := room.Occupancy()
		if phase == game.PhaseWaiting {
			resp.Waiting += humans
		} else {
			resp.Playing += humans
		}
		resp.Rooms++
	}
	resp.Total = resp.Waiting + resp.Playing
	resp.Viewers = h.viewers.Count(time.Now())
	resp.AgentsPending = h.store.Scheduler().Pending()

	writeJSON(w, http.StatusOK, resp)
}
