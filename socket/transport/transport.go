package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

const (
	CloseNormalClosure   = websocket.CloseNormalClosure
	CloseGoingAway       = websocket.CloseGoingAway
	CloseAbnormalClosure = websocket.CloseAbnormalClosure
)

// Dialer opens one realtime session per call to Dial.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is a single established session. Receive is called from one goroutine
// at a time; Send and Close may be called concurrently with it.
type Conn interface {
	Send(data []byte) error
	Receive() ([]byte, error)
	Close(code int, reason string) error
}

// CloseError reports a close frame received from the peer.
type CloseError struct {
	Code int
	Text string
}

func (e *CloseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("connection closed with code %d", e.Code)
	}
	return fmt.Sprintf("connection closed with code %d: %s", e.Code, e.Text)
}

// CloseStatus extracts the close code and reason carried by err. Errors that
// are not close frames map to CloseAbnormalClosure.
func CloseStatus(err error) (int, string) {
	if err == nil {
		return CloseNormalClosure, ""
	}

	var ce *CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text
	}

	var wce *websocket.CloseError
	if errors.As(err, &wce) {
		return wce.Code, wce.Text
	}

	return CloseAbnormalClosure, err.Error()
}

// IsCloseFrame reports whether err came from a close frame rather than a
// failure of the underlying connection.
func IsCloseFrame(err error) bool {
	var ce *CloseError
	if errors.As(err, &ce) {
		return true
	}
	var wce *websocket.CloseError
	return errors.As(err, &wce)
}
