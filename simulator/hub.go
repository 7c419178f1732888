package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/kleeedolinux/datesync/debug"
	"github.com/kleeedolinux/datesync/model"
	"github.com/kleeedolinux/datesync/socket/transport"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

var ErrNoPeers = errors.New("no connected clients")

// Frame is the server-to-client envelope.
type Frame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type peer struct {
	id        string
	transport transport.ServerTransport
	token     string
}

// Hub accepts realtime clients over WebSocket and fans frames out to all of
// them. Frames a client sends are routed to handlers by their type.
type Hub struct {
	mu       sync.RWMutex
	peers    map[string]*peer
	tokens   []string
	handlers map[string][]func(peerID string, frame json.RawMessage)
	onJoin   []func(peerID string)

	maxConnections     int
	bufferSize         int
	compressionEnabled bool
	now                func() time.Time
	logger             zerolog.Logger
}

type HubOption func(*Hub)

// WithMaxConnections rejects upgrades beyond n concurrent clients. Zero means
// no limit.
func WithMaxConnections(n int) HubOption {
	return func(h *Hub) {
		h.maxConnections = n
	}
}

func WithBufferSize(size int) HubOption {
	return func(h *Hub) {
		h.bufferSize = size
	}
}

func WithCompression(enabled bool) HubOption {
	return func(h *Hub) {
		h.compressionEnabled = enabled
	}
}

func WithLogger(logger zerolog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		peers:      make(map[string]*peer),
		handlers:   make(map[string][]func(string, json.RawMessage)),
		bufferSize: 1024,
		now:        time.Now,
		logger:     debug.Component("simulator"),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.maxConnections > 0 && h.Count() >= h.maxConnections {
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	upgrader := transport.Upgrader
	upgrader.EnableCompression = h.compressionEnabled
	upgrader.ReadBufferSize = h.bufferSize
	upgrader.WriteBufferSize = h.bufferSize

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	wsConfig := transport.DefaultWebSocketServerConfig()
	p := &peer{
		id:        id,
		transport: transport.NewWebSocketServerTransport(id, conn, wsConfig),
	}

	h.mu.Lock()
	h.peers[id] = p
	joins := append([]func(string){}, h.onJoin...)
	h.mu.Unlock()

	h.logger.Info().Str("peer", id).Msg("client connected")
	for _, fn := range joins {
		go fn(id)
	}

	h.readLoop(p)
}

func (h *Hub) readLoop(p *peer) {
	defer func() {
		h.mu.Lock()
		delete(h.peers, p.id)
		h.mu.Unlock()
		h.logger.Info().Str("peer", p.id).Msg("client disconnected")
	}()

	for {
		data, err := p.transport.Read()
		if err != nil {
			return
		}

		frame := gjson.ParseBytes(data)
		typ := frame.Get("type").String()
		if typ == "" {
			h.logger.Warn().Str("peer", p.id).Msg("frame without type")
			continue
		}

		if typ == "auth" {
			token := frame.Get("token").String()
			h.mu.Lock()
			p.token = token
			h.tokens = append(h.tokens, token)
			h.mu.Unlock()
			h.logger.Debug().Str("peer", p.id).Msg("client authenticated")
		}

		h.mu.RLock()
		handlers := h.handlers[typ]
		h.mu.RUnlock()

		for _, handler := range handlers {
			handler(p.id, json.RawMessage(data))
		}
	}
}

// HandleFunc registers handler for client frames of the given type. Handlers
// run on the client's read loop, one frame at a time in arrival order.
func (h *Hub) HandleFunc(frameType string, handler func(peerID string, frame json.RawMessage)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handlers[frameType] = append(h.handlers[frameType], handler)
}

// OnJoin registers fn to run after each client connects.
func (h *Hub) OnJoin(fn func(peerID string)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.onJoin = append(h.onJoin, fn)
}

// Broadcast stamps and sends a {type, data, timestamp} frame to every client.
func (h *Hub) Broadcast(eventType string, data interface{}) error {
	frame, err := json.Marshal(Frame{
		Type:      eventType,
		Data:      data,
		Timestamp: h.now().UTC().Format(model.TimestampLayout),
	})
	if err != nil {
		return err
	}
	return h.BroadcastRaw(frame)
}

// BroadcastRaw sends frame unchanged to every client.
func (h *Hub) BroadcastRaw(frame []byte) error {
	peers := h.snapshot()
	if len(peers) == 0 {
		return ErrNoPeers
	}

	for _, p := range peers {
		if err := p.transport.Write(frame); err != nil {
			h.logger.Warn().Err(err).Str("peer", p.id).Msg("broadcast failed")
		}
	}
	return nil
}

// Send delivers a stamped frame to one client.
func (h *Hub) Send(peerID, eventType string, data interface{}) error {
	h.mu.RLock()
	p, ok := h.peers[peerID]
	h.mu.RUnlock()
	if !ok {
		return ErrNoPeers
	}

	frame, err := json.Marshal(Frame{
		Type:      eventType,
		Data:      data,
		Timestamp: h.now().UTC().Format(model.TimestampLayout),
	})
	if err != nil {
		return err
	}
	return p.transport.Write(frame)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.peers)
}

// Tokens returns every auth token received, in arrival order.
func (h *Hub) Tokens() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]string(nil), h.tokens...)
}

// CloseAll closes every client with the given close code.
func (h *Hub) CloseAll(code int, reason string) {
	for _, p := range h.snapshot() {
		if err := p.transport.CloseWithCode(code, reason); err != nil {
			h.logger.Debug().Err(err).Str("peer", p.id).Msg("error closing client")
		}
	}
}

func (h *Hub) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.CloseAll(transport.CloseGoingAway, "server shutting down")
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) snapshot() []*peer {
	h.mu.RLock()
	defer h.mu.RUnlock()

	peers := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	return peers
}
