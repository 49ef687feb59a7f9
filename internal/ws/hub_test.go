package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/logger"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, uuid.UUID) {
	t.Helper()
	logger.Silence()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	userID := uuid.New()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, hub, userID)
		hub.Register(client)
		client.Run()
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv, userID
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_DeliversNotificationToConnectedUser(t *testing.T) {
	hub, srv, userID := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 10*time.Millisecond)

	reservationID := uuid.New()
	hub.Notify(context.Background(), repository.Notification{
		Type:     repository.NotificationReservationApproved,
		UserID:   userID,
		EntityID: reservationID,
	})
	// Чужое уведомление до клиента не доходит.
	hub.Notify(context.Background(), repository.Notification{
		Type:   repository.NotificationReturnApproved,
		UserID: uuid.New(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type string                  `json:"type"`
		Data repository.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, string(repository.NotificationReservationApproved), got.Type)
	assert.Equal(t, reservationID, got.Data.EntityID)
	assert.Equal(t, userID, got.Data.UserID)
}

func TestHub_ClientRemovedOnDisconnect(t *testing.T) {
	hub, srv, userID := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_NotifyWithoutClientsDoesNotBlock(t *testing.T) {
	hub, _, _ := startHub(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Notify(context.Background(), repository.Notification{Type: repository.NotificationOverdue, UserID: uuid.New()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify заблокировался без подключённых клиентов")
	}
}
