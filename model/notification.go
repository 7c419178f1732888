package model

type Severity string

const (
	SeverityInfo        Severity = "info"
	SeveritySuccess     Severity = "success"
	SeverityWarning     Severity = "warning"
	SeverityError       Severity = "error"
	SeverityOpportunity Severity = "opportunity"
	SeverityMessage     Severity = "message"
)

type Notification struct {
	ID        string   `json:"id"`
	Type      Severity `json:"type"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Read      bool     `json:"read"`
	ActionURL string   `json:"action_url,omitempty"`
}

// TimestampLayout matches the millisecond ISO-8601 form used on the wire.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
