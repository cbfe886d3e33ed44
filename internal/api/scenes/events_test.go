package scenes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vasu1712/dronepilot-backend/internal/logging"
	"github.com/Vasu1712/dronepilot-backend/internal/middleware"
	"github.com/Vasu1712/dronepilot-backend/internal/storage/memory"
	"github.com/Vasu1712/dronepilot-backend/internal/validation"
	"github.com/Vasu1712/dronepilot-backend/internal/ws"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventsServer(t *testing.T, enforce bool) (*httptest.Server, *ws.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub()
	go hub.Run(ctx)

	logger := logging.Discard()
	h := &SceneHandler{
		Store:            memory.NewSceneStore(),
		Hub:              hub,
		Validator:        validation.New(),
		Logger:           logger,
		EnforceOwnership: enforce,
	}
	r := mux.NewRouter()
	RegisterSceneRoutes(r, h, middleware.RequireAuth(tokenVerifier{}, logger))

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, hub
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/scenes" + query
}

func TestServeEvents_ReceivesCreateAndDelete(t *testing.T) {
	srv, hub := newEventsServer(t, false)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token="+goodToken), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ActiveClients("u1") == 1 }, time.Second, 10*time.Millisecond)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/scenes", strings.NewReader(createBody("u1", 3, 4, texture)))
	req.Header.Set("Authorization", "Bearer "+goodToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type string `json:"type"`
		Data struct {
			ID     string `json:"id"`
			UserID string `json:"userId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, ws.EventSceneCreated, ev.Type)
	assert.Equal(t, "u1", ev.Data.UserID)

	del, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/scenes/"+ev.Data.ID, nil)
	del.Header.Set("Authorization", "Bearer "+goodToken)
	resp, err = http.DefaultClient.Do(del)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, ws.EventSceneDeleted, ev.Type)
}

func TestServeEvents_RequiresAuth(t *testing.T) {
	srv, _ := newEventsServer(t, false)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeEvents_OwnershipEnforced(t *testing.T) {
	srv, _ := newEventsServer(t, true)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "?userId=u1&token="+otherToken), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
