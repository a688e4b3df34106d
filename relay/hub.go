// Package relay exposes the running engine to game clients over WebSocket.
// Clients ping for clock sync and ask for scenarios to fire; the tick loop
// drains their requests between ticks and broadcasts the effects it emits.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nathoo/spellbound/types"
)

const (
	requestBuffer = 64
	writeTimeout  = 5 * time.Second
)

type inboundMessage struct {
	Type       string         `json:"type"`
	ClientTime int64          `json:"client_time"`
	Scenario   string         `json:"scenario"`
	Event      string         `json:"event"`
	Data       map[string]any `json:"data"`
}

type pongMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"server_time"`
	ClientTime int64  `json:"client_time"`
}

type effectsMessage struct {
	Type    string         `json:"type"`
	Tick    int            `json:"tick"`
	RunID   string         `json:"run_id"`
	Effects []types.Effect `json:"effects"`
}

// subscriber serializes writes to one client connection.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

// Hub tracks connected clients and queues their requests for the tick loop.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	requests chan Request
	now      func() time.Time

	mu          sync.Mutex
	subscribers map[string]*subscriber
}

// NewHub creates a hub with no clients.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		requests:    make(chan Request, requestBuffer),
		now:         time.Now,
		subscribers: make(map[string]*subscriber),
	}
}

// Requests returns the queue of client requests. Only the tick loop reads it.
func (h *Hub) Requests() <-chan Request {
	return h.requests
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Handler returns the HTTP routes served by the hub.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeHTTP)
	return mux
}

// ListenAndServe serves the hub on addr until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	h.log.Info("relay listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.closeAll()
		return srv.Shutdown(shutdownCtx)
	}
}

// ServeHTTP upgrades a client connection and reads its messages until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("id")
	if clientID == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.String("client", clientID), zap.Error(err))
		return
	}

	sub := h.subscribe(clientID, conn)
	defer h.unsubscribe(clientID, sub)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.log.Warn("discarding malformed message", zap.String("client", clientID), zap.Error(err))
			continue
		}

		switch msg.Type {
		case "ping":
			pong := pongMessage{Type: "pong", ServerTime: h.now().UnixMilli(), ClientTime: msg.ClientTime}
			if err := sub.writeJSON(pong); err != nil {
				return
			}
		case "fire":
			if msg.Scenario == "" {
				h.log.Warn("discarding fire without scenario", zap.String("client", clientID))
				continue
			}
			h.enqueue(Request{Client: clientID, Kind: KindFire, Scenario: msg.Scenario})
		case "trigger":
			if msg.Event == "" {
				h.log.Warn("discarding trigger without event", zap.String("client", clientID))
				continue
			}
			h.enqueue(Request{Client: clientID, Kind: KindTrigger, Event: types.Event{Type: msg.Event, Data: msg.Data}})
		case "close":
			h.enqueue(Request{Client: clientID, Kind: KindClose})
		default:
			h.log.Warn("discarding unknown message type", zap.String("client", clientID), zap.String("type", msg.Type))
		}
	}
}

// Broadcast publishes one batch of applied effects to every client. Empty
// batches are not sent.
func (h *Hub) Broadcast(tick int, runID uuid.UUID, effs []types.Effect) {
	if len(effs) == 0 {
		return
	}
	msg := effectsMessage{Type: "effects", Tick: tick, RunID: runID.String(), Effects: effs}

	h.mu.Lock()
	targets := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		targets[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range targets {
		if err := sub.writeJSON(msg); err != nil {
			h.log.Warn("broadcast failed", zap.String("client", id), zap.Error(err))
			h.unsubscribe(id, sub)
			sub.conn.Close()
		}
	}
}

func (h *Hub) enqueue(req Request) {
	select {
	case h.requests <- req:
		h.log.Debug("request queued", zap.String("client", req.Client), zap.String("kind", string(req.Kind)))
	default:
		h.log.Warn("request queue full, dropping request", zap.String("client", req.Client), zap.String("kind", string(req.Kind)))
	}
}

// subscribe registers conn under id. A reconnecting client replaces its
// previous connection.
func (h *Hub) subscribe(id string, conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	prev := h.subscribers[id]
	h.subscribers[id] = sub
	h.mu.Unlock()

	if prev != nil {
		prev.conn.Close()
	}
	h.log.Info("client connected", zap.String("client", id))
	return sub
}

func (h *Hub) unsubscribe(id string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[id] == sub {
		delete(h.subscribers, id)
		h.log.Info("client disconnected", zap.String("client", id))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		sub.mu.Lock()
		_ = sub.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		sub.mu.Unlock()
		sub.conn.Close()
	}
}
