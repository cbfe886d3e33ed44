package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, r.URL.Query().Get("userId"))
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesOnlyOwner(t *testing.T) {
	hub, srv := startHub(t)
	owner := dial(t, srv, "u1")
	other := dial(t, srv, "u2")

	require.Eventually(t, func() bool {
		return hub.ActiveClients("u1") == 1 && hub.ActiveClients("u2") == 1
	}, time.Second, 10*time.Millisecond)

	require.True(t, hub.Publish("u1", Event{Type: EventSceneDeleted, Data: map[string]string{"id": "s1"}}))

	_ = owner.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := owner.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventSceneDeleted, ev.Type)
	assert.Equal(t, "s1", ev.Data["id"])

	_ = other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "u2 must not receive u1's events")
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "u1")

	require.Eventually(t, func() bool { return hub.ActiveClients("u1") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ActiveClients("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StoppedHubRejects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	assert.False(t, hub.Publish("u1", Event{Type: EventSceneCreated}))
}
