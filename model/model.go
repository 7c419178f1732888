package model

import "encoding/json"

type Profile struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Username           string   `json:"username,omitempty"`
	InstagramURL       string   `json:"instagram_url,omitempty"`
	Platform           string   `json:"platform,omitempty"`
	Age                int      `json:"age,omitempty"`
	Location           string   `json:"location,omitempty"`
	Bio                string   `json:"bio,omitempty"`
	Photos             []string `json:"photos,omitempty"`
	Interests          []string `json:"interests,omitempty"`
	CompatibilityScore float64  `json:"compatibility_score,omitempty"`
	Status             string   `json:"status,omitempty"`
	DiscoveredAt       string   `json:"discovered_at,omitempty"`

	// Raw is the payload as the backend sent it, including fields not
	// modelled here.
	Raw json.RawMessage `json:"raw,omitempty"`
}

type ConversationState string

const (
	ConversationInitial ConversationState = "initial"
	ConversationEngaged ConversationState = "engaged"
	ConversationWarming ConversationState = "warming"
	ConversationActive  ConversationState = "active"
	ConversationStale   ConversationState = "stale"
	ConversationClosed  ConversationState = "closed"
)

type Conversation struct {
	ID              string                `json:"id"`
	ProfileID       string                `json:"profile_id,omitempty"`
	ProfileName     string                `json:"profile_name,omitempty"`
	Platform        string                `json:"platform,omitempty"`
	State           ConversationState     `json:"state,omitempty"`
	Messages        []ConversationMessage `json:"messages,omitempty"`
	MessagesCount   int                   `json:"messages_count"`
	ResponseRate    float64               `json:"response_rate,omitempty"`
	EngagementScore float64               `json:"engagement_score,omitempty"`
	LastMessageAt   string                `json:"last_message_at,omitempty"`
	NextActionAt    string                `json:"next_action_at,omitempty"`
	CreatedAt       string                `json:"created_at,omitempty"`
}

type ConversationMessage struct {
	ID             string `json:"id,omitempty"`
	ConversationID string `json:"conversation_id"`
	SenderName     string `json:"sender_name,omitempty"`
	Sender         string `json:"sender,omitempty"`
	Content        string `json:"content,omitempty"`
	SentAt         string `json:"sent_at,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

type OpportunityStatus string

const (
	OpportunityPending   OpportunityStatus = "pending"
	OpportunityResponded OpportunityStatus = "responded"
	OpportunityDismissed OpportunityStatus = "dismissed"
	OpportunityExpired   OpportunityStatus = "expired"
)

type Opportunity struct {
	ID                string            `json:"id,omitempty"`
	ProfileID         string            `json:"profile_id,omitempty"`
	ProfileName       string            `json:"profile_name,omitempty"`
	Type              string            `json:"type"`
	Description       string            `json:"description,omitempty"`
	Confidence        float64           `json:"confidence,omitempty"`
	Priority          string            `json:"priority,omitempty"`
	Status            OpportunityStatus `json:"status,omitempty"`
	Signals           []string          `json:"signals,omitempty"`
	SuggestedResponse string            `json:"suggested_response,omitempty"`
	DetectedAt        string            `json:"detected_at,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

type MessageStatus string

const (
	MessagePending  MessageStatus = "pending"
	MessageApproved MessageStatus = "approved"
	MessageSent     MessageStatus = "sent"
	MessageRejected MessageStatus = "rejected"
)

type Variant struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type PendingMessage struct {
	ID             string        `json:"id,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
	ProfileName    string        `json:"profile_name,omitempty"`
	Content        string        `json:"content,omitempty"`
	Variants       []Variant     `json:"variants,omitempty"`
	Confidence     float64       `json:"confidence,omitempty"`
	Status         MessageStatus `json:"status,omitempty"`
	ApprovedAt     string        `json:"approved_at,omitempty"`
	CreatedAt      string        `json:"created_at,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// MessageDelivery is the payload of message_sent_success and message_sent_failed.
type MessageDelivery struct {
	MessageID      string `json:"message_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	ProfileName    string `json:"profile_name,omitempty"`
	Error          string `json:"error,omitempty"`
}

type Workflow string

const (
	DiscoveryPipeline   Workflow = "discovery_pipeline"
	ConversationManager Workflow = "conversation_manager"
	OpportunityDetector Workflow = "opportunity_detector"
	AutoResponseSystem  Workflow = "auto_response_system"
)

func (w Workflow) Known() bool {
	switch w {
	case DiscoveryPipeline, ConversationManager, OpportunityDetector, AutoResponseSystem:
		return true
	}
	return false
}

type WorkflowStatus struct {
	Workflow Workflow `json:"workflow"`
	Enabled  bool     `json:"enabled"`
}

type DiscoveryPipelineConfig struct {
	Schedule         string   `json:"schedule,omitempty"`
	SearchCriteria   []string `json:"search_criteria,omitempty"`
	DailyLimit       int      `json:"daily_limit,omitempty"`
	MinCompatibility float64  `json:"min_compatibility,omitempty"`
	Enabled          bool     `json:"enabled"`
}

type ConversationManagerConfig struct {
	CheckInterval         int  `json:"check_interval,omitempty"`
	ResponseTimeThreshold int  `json:"response_time_threshold,omitempty"`
	InactivityThreshold   int  `json:"inactivity_threshold,omitempty"`
	Enabled               bool `json:"enabled"`
}

type OpportunityDetectorConfig struct {
	SensitivityLevel        string   `json:"sensitivity_level,omitempty"`
	EnabledOpportunityTypes []string `json:"enabled_opportunity_types,omitempty"`
	ConfidenceThreshold     float64  `json:"confidence_threshold,omitempty"`
	Enabled                 bool     `json:"enabled"`
}

type AutoResponseSystemConfig struct {
	AutoSendEnabled      bool    `json:"auto_send_enabled"`
	AutoSendThreshold    float64 `json:"auto_send_threshold,omitempty"`
	ApprovalTimeoutHours int     `json:"approval_timeout_hours,omitempty"`
	GenerateVariantCount int     `json:"generate_variant_count,omitempty"`
	Enabled              bool    `json:"enabled"`
}

type WorkflowConfig struct {
	DiscoveryPipeline   DiscoveryPipelineConfig   `json:"discovery_pipeline"`
	ConversationManager ConversationManagerConfig `json:"conversation_manager"`
	OpportunityDetector OpportunityDetectorConfig `json:"opportunity_detector"`
	AutoResponseSystem  AutoResponseSystemConfig  `json:"auto_response_system"`
}

type DailyMetrics struct {
	ProfilesAnalyzed      int `json:"profiles_analyzed"`
	MessagesSent          int `json:"messages_sent"`
	OpportunitiesDetected int `json:"opportunities_detected"`
	ResponsesReceived     int `json:"responses_received"`
	NewMatches            int `json:"new_matches"`
}

type MetricTrends struct {
	ProfilesChange      float64 `json:"profiles_change"`
	MessagesChange      float64 `json:"messages_change"`
	OpportunitiesChange float64 `json:"opportunities_change"`
	ResponsesChange     float64 `json:"responses_change"`
	MatchesChange       float64 `json:"matches_change"`
}

type MetricTotals struct {
	TotalProfiles      int     `json:"total_profiles"`
	TotalConversations int     `json:"total_conversations"`
	TotalMatches       int     `json:"total_matches"`
	SuccessRate        float64 `json:"success_rate"`
}

type DashboardMetrics struct {
	Today  DailyMetrics `json:"today"`
	Trends MetricTrends `json:"trends"`
	Totals MetricTotals `json:"totals"`
}

type SystemStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ServerError struct {
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ConversationUpdate carries the id of the conversation to update and the raw
// fields to merge into it.
type ConversationUpdate struct {
	ID    string          `json:"id"`
	Patch json.RawMessage `json:"-"`
}
