package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/goofcode/just-start-server/internal/app"
	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/infrastructure/monitoring"
)

// Message is one frame on the log stream.
type Message struct {
	Type      string `json:"type"`
	AppID     string `json:"app_id,omitempty"`
	Line      string `json:"line,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

const (
	writeWait     = 5 * time.Second
	clientBacklog = 256
	typeLog       = "log"
	typeSystem    = "system"
	typePong      = "pong"
)

// The service binds to loopback; browser tooling connects from file:// and
// editor webview origins.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn  *websocket.Conn
	appID string // empty subscribes to every application
	out   chan []byte
}

// Hub fans application log lines out to subscribed connections. It is the
// LogSink factory the lifecycle handlers hand to Deploy/Start/Stop/Debug.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger, metrics *monitoring.Metrics) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.Named("ws"),
		metrics: metrics,
	}
}

// Sink returns a LogSink that tags every line with the application id and
// broadcasts it. Safe for concurrent use by the process drain goroutine.
func (h *Hub) Sink(appID string) app.LogSink {
	return sinkFunc(func(line string) {
		h.broadcast(Message{
			Type:      typeLog,
			AppID:     appID,
			Line:      line,
			Timestamp: time.Now().UnixMilli(),
		})
	})
}

type sinkFunc func(line string)

func (f sinkFunc) Append(line string) { f(line) }

func (h *Hub) broadcast(msg Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.log.Warn("encoding frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.appID != "" && c.appID != msg.AppID {
			continue
		}
		select {
		case c.out <- data:
		default:
			// Slow consumer: drop the line rather than stall the
			// process drain.
		}
	}
}

// HandleConnection upgrades the request and streams log frames until the
// client disconnects. The optional ?app= query filters to one application.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		conn:  conn,
		appID: c.Query("app"),
		out:   make(chan []byte, clientBacklog),
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.metrics.IncWSConnections()

	hello, _ := sonic.Marshal(Message{
		Type:      typeSystem,
		Line:      "connected to just-start-server log stream",
		Timestamp: time.Now().UnixMilli(),
	})
	cl.out <- hello

	go h.writeLoop(cl)
	h.readLoop(cl)
}

// readLoop consumes client frames until the connection dies. Clients only
// ever send pings.
func (h *Hub) readLoop(cl *client) {
	defer h.drop(cl)

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong, _ := sonic.Marshal(Message{Type: typePong, Timestamp: time.Now().UnixMilli()})
			select {
			case cl.out <- pong:
			default:
			}
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	for data := range cl.out {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	_, present := h.clients[cl]
	delete(h.clients, cl)
	h.mu.Unlock()

	if present {
		close(cl.out)
		cl.conn.Close()
		h.metrics.DecWSConnections()
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
