package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/infrastructure/monitoring"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(logging.NewNop(), monitoring.NewWith(prometheus.NewRegistry()))
	r := gin.New()
	r.GET("/stream", hub.HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, sonic.Unmarshal(data, &msg))
	return msg
}

func TestHubBroadcastsLogLines(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "")

	assert.Equal(t, typeSystem, readFrame(t, conn).Type)

	hub.Sink("App1").Append("server started")

	msg := readFrame(t, conn)
	assert.Equal(t, typeLog, msg.Type)
	assert.Equal(t, "App1", msg.AppID)
	assert.Equal(t, "server started", msg.Line)
}

func TestHubFiltersByApp(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "?app=App2")

	readFrame(t, conn) // welcome

	hub.Sink("App1").Append("other app line")
	hub.Sink("App2").Append("my line")

	msg := readFrame(t, conn)
	assert.Equal(t, "App2", msg.AppID)
	assert.Equal(t, "my line", msg.Line)
}

func TestHubAnswersPing(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dial(t, srv, "")

	readFrame(t, conn) // welcome

	ping, err := sonic.Marshal(Message{Type: "ping"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, ping))

	assert.Equal(t, typePong, readFrame(t, conn).Type)
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "")

	readFrame(t, conn) // welcome
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
