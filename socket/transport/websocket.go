package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/kleeedolinux/datesync/debug"

	"github.com/gorilla/websocket"
)

var errNotConnected = errors.New("not connected")

type WebSocketDialer struct {
	url              string
	dialer           *websocket.Dialer
	headers          http.Header
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	writeTimeout     time.Duration
	compression      bool
}

type WebSocketOption func(*WebSocketDialer)

func WithHeaders(headers http.Header) WebSocketOption {
	return func(d *WebSocketDialer) {
		for k, v := range headers {
			d.headers[k] = v
		}
	}
}

func WithHandshakeTimeout(timeout time.Duration) WebSocketOption {
	return func(d *WebSocketDialer) {
		d.handshakeTimeout = timeout
	}
}

// WithReadTimeout sets a per-frame read deadline. Zero disables it, which is
// the default since the backend does not send keepalives.
func WithReadTimeout(timeout time.Duration) WebSocketOption {
	return func(d *WebSocketDialer) {
		d.readTimeout = timeout
	}
}

func WithWriteTimeout(timeout time.Duration) WebSocketOption {
	return func(d *WebSocketDialer) {
		d.writeTimeout = timeout
	}
}

func WithCompression(enabled bool) WebSocketOption {
	return func(d *WebSocketDialer) {
		d.compression = enabled
	}
}

func NewWebSocketDialer(url string, opts ...WebSocketOption) *WebSocketDialer {
	d := &WebSocketDialer{
		url:              url,
		dialer:           websocket.DefaultDialer,
		headers:          make(http.Header),
		handshakeTimeout: 10 * time.Second,
		writeTimeout:     10 * time.Second,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *WebSocketDialer) URL() string {
	return d.url
}

func (d *WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	debug.Printf("WebSocketDialer: Connecting to %s", d.url)

	dialer := *d.dialer
	dialer.HandshakeTimeout = d.handshakeTimeout
	dialer.EnableCompression = d.compression

	conn, _, err := dialer.DialContext(ctx, d.url, d.headers)
	if err != nil {
		debug.Printf("WebSocketDialer: Connection failed: %v", err)
		return nil, err
	}

	debug.Printf("WebSocketDialer: Connected successfully")

	c := &WebSocketConn{
		conn:         conn,
		readTimeout:  d.readTimeout,
		writeTimeout: d.writeTimeout,
	}
	if c.readTimeout > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		})
	}

	return c, nil
}

type WebSocketConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
	closed       bool
}

func (c *WebSocketConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errNotConnected
	}

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			debug.Printf("WebSocketConn: Error setting write deadline: %v", err)
			return err
		}
	}

	debug.Printf("WebSocketConn: Sending data: %s", string(data))
	err := c.conn.WriteMessage(websocket.TextMessage, data)
	if err != nil {
		debug.Printf("WebSocketConn: Send error: %v", err)
	}
	return err
}

func (c *WebSocketConn) Receive() ([]byte, error) {
	if c.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			debug.Printf("WebSocketConn: Error setting read deadline: %v", err)
			return nil, err
		}
	}

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		debug.Printf("WebSocketConn: Read error: %v", err)
		var wce *websocket.CloseError
		if errors.As(err, &wce) {
			return nil, &CloseError{Code: wce.Code, Text: wce.Text}
		}
		return nil, err
	}

	debug.Printf("WebSocketConn: Received data: %s", string(message))
	return message, nil
}

func (c *WebSocketConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	debug.Printf("WebSocketConn: Closing connection with code %d", code)

	err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second),
	)
	if err != nil {
		debug.Printf("WebSocketConn: Error sending close message: %v", err)
	}

	err = c.conn.Close()
	if err != nil {
		debug.Printf("WebSocketConn: Error closing connection: %v", err)
	}

	return err
}
