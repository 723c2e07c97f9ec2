package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarker struct {
	mu    sync.Mutex
	read  []int64
	acted []int64
}

func (m *fakeMarker) MarkRead(_ context.Context, id, _ int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.read = append(m.read, id)
	return true, nil
}

func (m *fakeMarker) MarkActed(_ context.Context, id, _ int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acted = append(m.acted, id)
	return true, nil
}

func (m *fakeMarker) readIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.read...)
}

func startServer(t *testing.T, hub *Hub, userID int64) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(hub, zerolog.Nop())
	r.GET("/ws", func(c *gin.Context) {
		c.Set("userID", userID)
		handler.Subscribe(c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_SendToUserReachesOpenConnection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := startServer(t, hub, 7)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.GetClientsCount(7) == 1 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, hub.SendToUser(8, []byte(`{}`)))
	assert.Equal(t, 1, hub.SendToUser(7, []byte(`{"type":"notification"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification"}`, string(payload))
}

func TestHub_FansOutToEverySocketOfUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := startServer(t, hub, 5)
	tab, phone := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return hub.GetClientsCount(5) == 2 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, hub.SendToUser(5, []byte(`{"type":"notification","id":1}`)))
	for _, conn := range []*gorilla.Conn{tab, phone} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"notification","id":1}`, string(payload))
	}
}

func TestSubscribe_RequiresCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewHandler(NewHub(zerolog.Nop()), zerolog.Nop()).Subscribe)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := startServer(t, hub, 3)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.GetClientsCount(3) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetClientsCount(3) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestMessageHandler_AppliesReadFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	marker := &fakeMarker{}
	NewMessageHandler(marker, hub, zerolog.Nop()).Start(ctx)

	srv := startServer(t, hub, 11)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.GetClientsCount(11) == 1 }, time.Second, 10*time.Millisecond)

	frame, err := json.Marshal(Message{Type: TypeRead, NotificationID: 99})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, frame))

	assert.Eventually(t, func() bool {
		ids := marker.readIDs()
		return len(ids) == 1 && ids[0] == 99
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMessageHandler_IgnoresUnknownFrames(t *testing.T) {
	marker := &fakeMarker{}
	h := NewMessageHandler(marker, NewHub(zerolog.Nop()), zerolog.Nop())

	h.HandleIncomingMessage(context.Background(), &Message{Type: "typing", NotificationID: 1, UserID: 1})
	h.HandleIncomingMessage(context.Background(), &Message{Type: TypeAct, UserID: 1})

	assert.Empty(t, marker.read)
	assert.Empty(t, marker.acted)
}

func TestDecodeFrame(t *testing.T) {
	msg, ok := decodeFrame([]byte(`{"type":"read","notificationId":12}`))
	require.True(t, ok)
	assert.Equal(t, TypeRead, msg.Type)
	assert.Equal(t, int64(12), msg.NotificationID)

	for _, raw := range []string{
		`{"type":"notification","notificationId":12}`,
		`{"type":"act"}`,
		`{"type":"act","notificationId":-1}`,
		`not json`,
	} {
		_, ok := decodeFrame([]byte(raw))
		assert.False(t, ok, raw)
	}
}
