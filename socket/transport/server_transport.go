package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/kleeedolinux/datesync/debug"

	"github.com/gorilla/websocket"
)

type ServerTransport interface {
	Read() ([]byte, error)

	Write([]byte) error

	CloseWithCode(code int, reason string) error

	Close() error

	ID() string
}

type WebSocketServerTransport struct {
	id           string
	conn         *websocket.Conn
	sendCh       chan []byte
	closeCh      chan struct{}
	writeWg      sync.WaitGroup
	writeTimeout time.Duration
	mu           sync.Mutex
	closed       bool
}

type WebSocketServerConfig struct {
	WriteTimeout time.Duration
	BufferSize   int
}

func DefaultWebSocketServerConfig() WebSocketServerConfig {
	return WebSocketServerConfig{
		WriteTimeout: 10 * time.Second,
		BufferSize:   100,
	}
}

func NewWebSocketServerTransport(id string, conn *websocket.Conn, config WebSocketServerConfig) *WebSocketServerTransport {
	t := &WebSocketServerTransport{
		id:           id,
		conn:         conn,
		sendCh:       make(chan []byte, config.BufferSize),
		closeCh:      make(chan struct{}),
		writeTimeout: config.WriteTimeout,
	}

	t.writeWg.Add(1)
	go t.writePump()

	return t
}

func (t *WebSocketServerTransport) writePump() {
	defer t.writeWg.Done()

	for {
		select {
		case <-t.closeCh:
			return
		case message := <-t.sendCh:
			t.mu.Lock()
			if t.closed {
				t.mu.Unlock()
				return
			}

			if t.writeTimeout > 0 {
				t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
			}

			err := t.conn.WriteMessage(websocket.TextMessage, message)
			t.mu.Unlock()

			if err != nil {
				go t.Close()
				return
			}
		}
	}
}

func (t *WebSocketServerTransport) Read() ([]byte, error) {
	_, message, err := t.conn.ReadMessage()
	if err != nil {
		debug.Printf("WebSocketServerTransport %s: Error reading message: %v", t.id, err)
		t.Close()
		return nil, err
	}

	debug.Printf("WebSocketServerTransport %s: Received message: %s", t.id, string(message))
	return message, nil
}

func (t *WebSocketServerTransport) Write(data []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()

	if closed {
		debug.Printf("WebSocketServerTransport %s: Attempted to write to closed transport", t.id)
		return errNotConnected
	}

	select {
	case t.sendCh <- data:
		return nil
	default:
		debug.Printf("WebSocketServerTransport %s: Send buffer full, closing connection", t.id)
		go t.Close()
		return errNotConnected
	}
}

func (t *WebSocketServerTransport) Close() error {
	return t.CloseWithCode(CloseNormalClosure, "")
}

// CloseWithCode drops any queued frames and closes with the given code.
func (t *WebSocketServerTransport) CloseWithCode(code int, reason string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}

	t.closed = true
	close(t.closeCh)
	t.mu.Unlock()

	t.writeWg.Wait()

	t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second),
	)

	return t.conn.Close()
}

func (t *WebSocketServerTransport) ID() string {
	return t.id
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
