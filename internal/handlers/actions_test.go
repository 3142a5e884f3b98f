package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storyteller/internal/game"
)

func TestCreateRoom(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)

	t.Run("seats the host with a hand", func(t *testing.T) {
		var resp seatResponse
		w := doJSON(t, router, "POST", "/api/room/create", map[string]string{"playerName": "Ada", "playerType": "lobster"}, &resp)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Len(t, resp.RoomCode, 4)
		assert.True(t, resp.IsHost)
		assert.Equal(t, "Ada(🦞)", resp.Player.Name)
		assert.Len(t, resp.Player.Hand, 6)
		require.Len(t, resp.Players, 1)
		assert.Equal(t, resp.PlayerID, resp.Players[0].ID)
	})

	t.Run("clients cannot seat themselves as bots", func(t *testing.T) {
		var resp seatResponse
		doJSON(t, router, "POST", "/api/room/create", map[string]string{"playerName": "Sly", "playerType": "bot"}, &resp)
		assert.Equal(t, game.KindHuman, resp.Players[0].Kind)
		assert.True(t, strings.HasPrefix(resp.PlayerID, "p_"))
	})

	t.Run("blank name", func(t *testing.T) {
		var resp errorResponse
		w := doJSON(t, router, "POST", "/api/room/create", map[string]string{"playerName": "   "}, &resp)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, string(game.KindValidation), resp.Kind)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/room/create", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestJoinRoom(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)
	table := seatTable(t, router, 2)

	t.Run("room code is case insensitive", func(t *testing.T) {
		var resp seatResponse
		w := doJSON(t, router, "POST", "/api/room/join", map[string]string{
			"roomCode":   strings.ToLower(table.code),
			"playerName": "Zed",
		}, &resp)
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, resp.IsHost)
		assert.Len(t, resp.Players, 4)
	})

	t.Run("unknown room", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/room/join", map[string]string{"roomCode": "QQQQ", "playerName": "Zed"}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing code", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/room/join", map[string]string{"playerName": "Zed"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("started game rejects joins", func(t *testing.T) {
		w := doJSON(t, router, "POST", table.path("start"), map[string]string{"playerId": table.host.PlayerID}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp errorResponse
		w = doJSON(t, router, "POST", "/api/room/join", map[string]string{"roomCode": table.code, "playerName": "Late"}, &resp)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, game.ErrGameAlreadyStarted.Error(), resp.Error)
	})
}

func TestRoomFull(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)
	table := seatTable(t, router, 7)

	w := doJSON(t, router, "POST", "/api/room/join", map[string]string{"roomCode": table.code, "playerName": "Nine"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", table.path("add-bot"), map[string]string{"playerId": table.host.PlayerID}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFullRoundOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)
	table := seatTable(t, router, 2)
	host, bo, cy := table.host, table.guests[0], table.guests[1]

	send := func(action, playerID string, extra map[string]interface{}) *httptest.ResponseRecorder {
		body := map[string]interface{}{"playerId": playerID}
		for k, v := range extra {
			body[k] = v
		}
		return doJSON(t, router, "POST", table.path(action), body, nil)
	}

	assert.Equal(t, http.StatusForbidden, send("start", bo.PlayerID, nil).Code)
	require.Equal(t, http.StatusOK, send("start", host.PlayerID, nil).Code)

	// storytelling
	assert.Equal(t, http.StatusForbidden, send("story", bo.PlayerID, map[string]interface{}{"cardId": bo.Player.Hand[0].ID, "story": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, send("story", host.PlayerID, map[string]interface{}{"cardId": host.Player.Hand[0].ID, "story": "  "}).Code)
	assert.Equal(t, http.StatusNotFound, send("story", host.PlayerID, map[string]interface{}{"cardId": bo.Player.Hand[0].ID, "story": "tide"}).Code)

	var hand handResponse
	w := doJSON(t, router, "POST", table.path("story"), map[string]interface{}{
		"playerId": host.PlayerID, "cardId": host.Player.Hand[0].ID, "story": "tide",
	}, &hand)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, hand.Hand, 5)

	// selecting
	// the storyteller's card is already down
	assert.Equal(t, http.StatusConflict, send("card", host.PlayerID, map[string]interface{}{"cardId": host.Player.Hand[1].ID}).Code)
	require.Equal(t, http.StatusOK, send("card", bo.PlayerID, map[string]interface{}{"cardId": bo.Player.Hand[0].ID}).Code)
	assert.Equal(t, http.StatusConflict, send("card", bo.PlayerID, map[string]interface{}{"cardId": bo.Player.Hand[1].ID}).Code)
	require.Equal(t, http.StatusOK, send("card", cy.PlayerID, map[string]interface{}{"cardId": cy.Player.Hand[0].ID}).Code)

	// voting
	room, err := h.Store().GetRoom(table.code)
	require.NoError(t, err)
	numbers := make(map[string]int)
	for _, sub := range room.Submissions {
		numbers[sub.PlayerID] = sub.DisplayNumber
	}
	require.Len(t, numbers, 3)

	var state game.Snapshot
	doJSON(t, router, "GET", fmt.Sprintf("%s?playerId=%s", table.path("state"), bo.PlayerID), nil, &state)
	assert.Equal(t, game.PhaseVoting, state.Phase)
	require.Len(t, state.Cards, 3)
	for _, c := range state.Cards {
		assert.Empty(t, c.PlayerID, "authorship stays hidden while voting")
	}

	assert.Equal(t, http.StatusForbidden, send("vote", host.PlayerID, map[string]interface{}{"displayNumber": numbers[bo.PlayerID]}).Code)
	assert.Equal(t, http.StatusForbidden, send("vote", bo.PlayerID, map[string]interface{}{"displayNumber": numbers[bo.PlayerID]}).Code)
	assert.Equal(t, http.StatusNotFound, send("vote", bo.PlayerID, map[string]interface{}{"displayNumber": 9}).Code)
	require.Equal(t, http.StatusOK, send("vote", bo.PlayerID, map[string]interface{}{"displayNumber": numbers[host.PlayerID]}).Code)
	assert.Equal(t, http.StatusConflict, send("vote", bo.PlayerID, map[string]interface{}{"displayNumber": numbers[cy.PlayerID]}).Code)
	require.Equal(t, http.StatusOK, send("vote", cy.PlayerID, map[string]interface{}{"displayNumber": numbers[bo.PlayerID]}).Code)

	// reveal
	doJSON(t, router, "GET", fmt.Sprintf("%s?playerId=%s", table.path("state"), host.PlayerID), nil, &state)
	assert.Equal(t, game.PhaseReveal, state.Phase)
	scores := make(map[string]int)
	for _, p := range state.Players {
		scores[p.ID] = p.Score
	}
	assert.Equal(t, map[string]int{host.PlayerID: 3, bo.PlayerID: 4, cy.PlayerID: 0}, scores)
	for _, c := range state.Cards {
		assert.NotEmpty(t, c.PlayerID)
		require.NotNil(t, c.IsStoryteller)
		assert.Equal(t, c.PlayerID == host.PlayerID, *c.IsStoryteller)
	}

	// next round
	assert.Equal(t, http.StatusForbidden, send("next", bo.PlayerID, nil).Code)
	require.Equal(t, http.StatusOK, send("next", host.PlayerID, nil).Code)
	assert.Equal(t, http.StatusBadRequest, send("next", host.PlayerID, nil).Code)

	doJSON(t, router, "GET", fmt.Sprintf("%s?playerId=%s", table.path("state"), bo.PlayerID), nil, &state)
	assert.Equal(t, game.PhaseStorytelling, state.Phase)
	assert.Equal(t, 2, state.Round)
	assert.Equal(t, bo.PlayerID, state.StorytellerID)
	assert.Len(t, state.Hand, 6)
}

func TestState(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)
	table := seatTable(t, router, 1)

	var state game.Snapshot
	w := doJSON(t, router, "GET", table.path("state")+"?playerId="+table.host.PlayerID, nil, &state)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, game.PhaseWaiting, state.Phase)
	assert.True(t, state.IsHost)
	assert.Empty(t, state.StorytellerID)

	t.Run("since at the last update reports no change", func(t *testing.T) {
		var resp noChangeResponse
		doJSON(t, router, "GET", fmt.Sprintf("%s?playerId=%s&since=%d", table.path("state"), table.host.PlayerID, state.LastUpdate), nil, &resp)
		assert.True(t, resp.NoChange)
		assert.Equal(t, state.LastUpdate, resp.LastUpdate)
	})

	t.Run("older since returns the full state", func(t *testing.T) {
		var fresh game.Snapshot
		doJSON(t, router, "GET", fmt.Sprintf("%s?since=%d", table.path("state"), state.LastUpdate-1), nil, &fresh)
		assert.Equal(t, table.code, fresh.RoomCode)
		assert.Empty(t, fresh.Hand, "anonymous pollers see no hand")
	})

	t.Run("bad since", func(t *testing.T) {
		w := doJSON(t, router, "GET", table.path("state")+"?since=soon", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown room", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/room/ZZZZ/state", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRejoin(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)
	table := seatTable(t, router, 1)

	var resp snapshotResponse
	w := doJSON(t, router, "POST", "/api/room/rejoin", map[string]string{
		"playerId": table.guests[0].PlayerID,
		"roomCode": strings.ToLower(table.code),
	}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, table.guests[0].Player.Hand, resp.Hand)

	w = doJSON(t, router, "POST", "/api/room/rejoin", map[string]string{"playerId": "p_gone", "roomCode": table.code}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "POST", "/api/room/rejoin", map[string]string{"roomCode": table.code}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddAgent(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)
	table := seatTable(t, router, 1)

	w := doJSON(t, router, "POST", table.path("add-bot"), map[string]string{"playerId": table.guests[0].PlayerID}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp agentResponse
	w = doJSON(t, router, "POST", table.path("add-bot"), map[string]string{"playerId": table.host.PlayerID}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Bot.IsBot)
	assert.True(t, strings.HasPrefix(resp.Bot.ID, "bot_"))
	assert.Contains(t, resp.Bot.Name, "🤖")
	assert.Len(t, resp.Players, 3)
}

func TestLeaveAndDisband(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)
	table := seatTable(t, router, 2)

	w := doJSON(t, router, "POST", table.path("leave"), map[string]string{"playerId": table.guests[1].PlayerID}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, "POST", table.path("leave"), map[string]string{"playerId": table.guests[1].PlayerID}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "POST", table.path("disband"), map[string]string{"playerId": table.guests[0].PlayerID}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, "POST", table.path("disband"), map[string]string{"playerId": table.host.PlayerID}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", table.path("state"), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, h.Store().RoomCount())
}

func TestLastHumanLeavingRemovesRoom(t *testing.T) {
	h := newTestHandler(t)
	router := setupTestRouter(h)
	table := seatTable(t, router, 0)

	w := doJSON(t, router, "POST", table.path("add-bot"), map[string]string{"playerId": table.host.PlayerID}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", table.path("leave"), map[string]string{"playerId": table.host.PlayerID}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := h.Store().GetRoom(table.code)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{game.ErrRoomNotFound, http.StatusNotFound},
		{fmt.Errorf("room ABCD: %w", game.ErrRoomNotFound), http.StatusNotFound},
		{game.ErrNotHost, http.StatusForbidden},
		{game.ErrSelfVote, http.StatusForbidden},
		{game.ErrWrongPhase, http.StatusBadRequest},
		{game.ErrAlreadyVoted, http.StatusConflict},
		{game.ErrAlreadySubmitted, http.StatusConflict},
		{game.ErrMissingStory, http.StatusBadRequest},
		{errBadBody, http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
