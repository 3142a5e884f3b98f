package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"storyteller/internal/game"
)

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type createRequest struct {
	PlayerName string `json:"playerName"`
	PlayerType string `json:"playerType"`
}

type joinRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	PlayerType string `json:"playerType"`
}

type rejoinRequest struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode"`
}

type storyRequest struct {
	PlayerID string `json:"playerId"`
	CardID   int    `json:"cardId"`
	Story    string `json:"story"`
}

type cardRequest struct {
	PlayerID string `json:"playerId"`
	CardID   int    `json:"cardId"`
}

type voteRequest struct {
	PlayerID      string `json:"playerId"`
	DisplayNumber int    `json:"displayNumber"`
}

type playerView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Hand  []game.Card `json:"hand"`
	Score int         `json:"score"`
}

type seatResponse struct {
	Success  bool                 `json:"success"`
	RoomCode string               `json:"roomCode"`
	PlayerID string               `json:"playerId"`
	Player   playerView           `json:"player"`
	Players  []game.PlayerSummary `json:"players"`
	IsHost   bool                 `json:"isHost"`
}

type snapshotResponse struct {
	Success bool `json:"success"`
	*game.Snapshot
}

type handResponse struct {
	Success bool        `json:"success"`
	Hand    []game.Card `json:"hand"`
}

type agentResponse struct {
	Success bool                 `json:"success"`
	Bot     game.PlayerSummary   `json:"bot"`
	Players []game.PlayerSummary `json:"players"`
}

type noChangeResponse struct {
	NoChange   bool  `json:"noChange"`
	LastUpdate int64 `json:"lastUpdate"`
}

// CreateRoom opens a room with the caller as host
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		h.writeError(w, r, game.ErrMissingName)
		return
	}

	host := game.NewPlayer(name, humanKind(req.PlayerType))
	room, err := h.store.CreateRoom(host)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSeat(w, r, room, host.ID)
}

// JoinRoom seats the caller in a waiting room
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		h.writeError(w, r, game.ErrMissingName)
		return
	}

	room, err := h.store.GetRoom(req.RoomCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	player := game.NewPlayer(name, humanKind(req.PlayerType))
	if err := room.AddPlayer(player); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSeat(w, r, room, player.ID)
}

// humanKind keeps clients from seating themselves as agents
func humanKind(s string) game.PlayerKind {
	if kind := game.ParsePlayerKind(s); kind != game.KindBot {
		return kind
	}
	return game.KindHuman
}

func (h *Handler) writeSeat(w http.ResponseWriter, r *http.Request, room *game.Room, playerID string) {
	snap, err := room.Rejoin(playerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var name string
	for _, p := range snap.Players {
		if p.ID == playerID {
			name = p.Name
		}
	}
	writeJSON(w, http.StatusOK, seatResponse{
		Success:  true,
		RoomCode: snap.RoomCode,
		PlayerID: playerID,
		Player:   playerView{ID: playerID, Name: name, Hand: snap.Hand, Score: snap.Score},
		Players:  snap.Players,
		IsHost:   snap.IsHost,
	})
}

// Rejoin restores a player's view after a reconnect
func (h *Handler) Rejoin(w http.ResponseWriter, r *http.Request) {
	var req rejoinRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.PlayerID == "" {
		h.writeError(w, r, game.ErrMissingPlayerID)
		return
	}

	room, err := h.store.GetRoom(req.RoomCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	snap, err := room.Rejoin(req.PlayerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Success: true, Snapshot: snap})
}

// State is the polling endpoint. A since value at or past the room's last
// update gets a small noChange reply.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	room, err := h.store.GetRoom(chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, r, errBadSince)
			return
		}
	}

	snap, changed := room.Poll(r.URL.Query().Get("playerId"), since)
	if !changed {
		writeJSON(w, http.StatusOK, noChangeResponse{NoChange: true, LastUpdate: room.LastUpdated()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// roomAction decodes the body, finds the room from the URL and runs fn
func roomAction[T any](h *Handler, w http.ResponseWriter, r *http.Request, fn func(*game.Room, T) (interface{}, error)) {
	var req T
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	room, err := h.store.GetRoom(chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := fn(room, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// StartGame starts round one (host only)
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	roomAction(h, w, r, func(room *game.Room, req playerRequest) (interface{}, error) {
		return successResponse{Success: true}, room.Start(req.PlayerID)
	})
}

// SubmitStory takes the storyteller's clue and card
func (h *Handler) SubmitStory(w http.ResponseWriter, r *http.Request) {
	roomAction(h, w, r, func(room *game.Room, req storyRequest) (interface{}, error) {
		if err := room.SubmitStory(req.PlayerID, req.CardID, req.Story); err != nil {
			return nil, err
		}
		return handResponse{Success: true, Hand: handOf(room, req.PlayerID)}, nil
	})
}

// SubmitCard takes a non-storyteller's card
func (h *Handler) SubmitCard(w http.ResponseWriter, r *http.Request) {
	roomAction(h, w, r, func(room *game.Room, req cardRequest) (interface{}, error) {
		if err := room.SubmitCard(req.PlayerID, req.CardID); err != nil {
			return nil, err
		}
		return handResponse{Success: true, Hand: handOf(room, req.PlayerID)}, nil
	})
}

// Vote records a guess
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	roomAction(h, w, r, func(room *game.Room, req voteRequest) (interface{}, error) {
		return successResponse{Success: true}, room.Vote(req.PlayerID, req.DisplayNumber)
	})
}

// AddAgent seats an agent player (host only)
func (h *Handler) AddAgent(w http.ResponseWriter, r *http.Request) {
	roomAction(h, w, r, func(room *game.Room, req playerRequest) (interface{}, error) {
		bot, err := room.AddAgent(req.PlayerID)
		if err != nil {
			return nil, err
		}
		snap, _ := room.Poll(req.PlayerID, 0)
		return agentResponse{
			Success: true,
			Bot:     game.PlayerSummary{ID: bot.ID, Name: bot.DisplayName, Kind: bot.Kind, IsBot: true},
			Players: snap.Players,
		}, nil
	})
}

// LeaveRoom removes the caller from the room
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomAction(h, w, r, func(room *game.Room, req playerRequest) (interface{}, error) {
		_, err := room.Leave(req.PlayerID)
		return successResponse{Success: true}, err
	})
}

// DisbandRoom closes the room for everyone (host only)
func (h *Handler) DisbandRoom(w http.ResponseWriter, r *http.Request) {
	roomAction(h, w, r, func(room *game.Room, req playerRequest) (interface{}, error) {
		return successResponse{Success: true}, room.Disband(req.PlayerID)
	})
}

// NextRound moves from reveal to the next storyteller (host only)
func (h *Handler) NextRound(w http.ResponseWriter, r *http.Request) {
	roomAction(h, w, r, func(room *game.Room, req playerRequest) (interface{}, error) {
		return successResponse{Success: true}, room.NextRound(req.PlayerID)
	})
}

func handOf(room *game.Room, playerID string) []game.Card {
	if p := room.GetPlayer(playerID); p != nil {
		return p.Hand
	}
	return []game.Card{}
}
