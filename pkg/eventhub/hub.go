// Package eventhub fans connection state changes and device responses out
// to websocket observers.
package eventhub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halo-device/halo-go/pkg/connection"
	"github.com/halo-device/halo-go/pkg/wire"
)

// Event types.
const (
	TypeState    = "state"
	TypeResponse = "response"
)

const (
	sendBuffer   = 64
	writeTimeout = time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// Event is one message sent to observers.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
}

// StateData is the payload of a TypeState event.
type StateData struct {
	Old      string `json:"old"`
	New      string `json:"new"`
	DeviceID string `json:"deviceId,omitempty"`
	Address  string `json:"address,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ResponseData is the payload of a TypeResponse event.
type ResponseData struct {
	Kind   string         `json:"kind"`
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// StateSource is a connection that reports transitions.
type StateSource interface {
	OnStateChange(fn connection.StateListener) (unsubscribe func())
}

// ResponseSource is a broadcast stream of responses.
type ResponseSource interface {
	Subscribe(fn func(*wire.Response), kinds ...string) (unsubscribe func())
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub tracks websocket clients and publishes events to them. Publish never
// blocks: a client whose buffer is full is disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates an empty hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Attach publishes every transition of states and every response of
// responses until the returned function is called. Either source may be
// nil.
func (h *Hub) Attach(states StateSource, responses ResponseSource) (detach func()) {
	var stops []func()
	if states != nil {
		stops = append(stops, states.OnStateChange(func(t connection.Transition) {
			h.Publish(TypeState, StateData{
				Old:      t.Old.String(),
				New:      t.New.String(),
				DeviceID: t.Descriptor.ID,
				Address:  t.Descriptor.Address,
				Reason:   t.Reason,
			})
		}))
	}
	if responses != nil {
		stops = append(stops, responses.Subscribe(func(r *wire.Response) {
			h.Publish(TypeResponse, ResponseData{
				Kind:   r.Kind,
				Status: string(r.Status),
				Error:  r.Error,
				Fields: r.Fields,
			})
		}))
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// Publish sends an event to every client.
func (h *Hub) Publish(eventType string, data any) {
	msg, err := json.Marshal(Event{Type: eventType, Time: time.Now(), Data: data})
	if err != nil {
		h.logger.Warn("encode event", "type", eventType, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("event client too slow, dropping", "remote", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("event client connected", "remote", conn.RemoteAddr())

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.once.Do(func() { close(c.send) })
}

// readLoop discards client messages and notices disconnects.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}
