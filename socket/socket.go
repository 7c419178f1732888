package socket

import (
	"encoding/json"
	"errors"

	"github.com/kleeedolinux/datesync/model"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Message is an inbound frame as it arrived on the wire.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// OutboundEvent is a client-to-server frame. Payload keys are flattened next
// to type; the timestamp is stamped at send time.
type OutboundEvent struct {
	Type    string
	Payload map[string]interface{}
}

// Store is the application state the client reconciles inbound events into.
type Store interface {
	AddProfile(profile model.Profile)
	UpdateConversation(id string, patch json.RawMessage)
	AddMessage(conversationID string, message model.ConversationMessage)
	AddOpportunity(opportunity model.Opportunity)
	AddPendingMessage(message model.PendingMessage)
	SetWorkflowEnabled(workflow model.Workflow, enabled bool)
	UpdateMetrics(metrics model.DashboardMetrics)
	SetConnectionStatus(connected bool)
	SetSystemStatus(status string)
}

// Notifier surfaces transient user-facing messages.
type Notifier interface {
	Notify(severity model.Severity, title, message string)
}

// TokenSource supplies the credential sent in the auth frame after open.
type TokenSource interface {
	Token() string
}

const SystemStatusDisconnected = "disconnected"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrInvalidMessage   = errors.New("invalid message format")
)
