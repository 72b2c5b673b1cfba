// Package events pushes order activity to connected POS screens over websockets.
package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	TypeKioskOrderSubmitted = "kiosk_order_submitted"
	TypeOrderCompleted      = "order_completed"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// Event is the message written to every connected screen.
type Event struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order"`
	At    time.Time     `json:"at"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to websocket clients. Slow clients lose messages instead of blocking sales.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub. allowedOrigins of nil or containing "*" accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	allowAll := len(allowedOrigins) == 0
	origins := map[string]struct{}{}
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		origins[o] = struct{}{}
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		clients: map[*client]struct{}{},
	}
}

func (h *Hub) KioskOrderSubmitted(order *models.Order) {
	h.Broadcast(Event{Type: TypeKioskOrderSubmitted, Order: order, At: time.Now()})
}

func (h *Hub) OrderCompleted(order *models.Order) {
	h.Broadcast(Event{Type: TypeOrderCompleted, Order: order, At: time.Now()})
}

// Broadcast queues ev for every client.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		utils.LogError(err, "failed to marshal feed event", map[string]interface{}{"type": ev.Type})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			utils.LogWarn("feed client buffer full, dropping event", map[string]interface{}{"type": ev.Type})
		}
	}
}

// ClientCount reports the number of connected screens.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams events until the client goes away.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogWarn("feed upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.writePump(cl)
	go h.readPump(cl)
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// readPump only services control frames; screens never send commands.
func (h *Hub) readPump(cl *client) {
	defer func() {
		h.unregister(cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(4096)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.LogDebug("feed client disconnected", map[string]interface{}{"error": err.Error()})
			}
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case message, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
