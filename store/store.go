package store

import (
	"encoding/json"
	"sync"

	"github.com/kleeedolinux/datesync/debug"
	"github.com/kleeedolinux/datesync/model"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MaxNotifications bounds the notification list; the oldest entries fall off.
const MaxNotifications = 100

// State is the reconciled application state. Conversations, profiles,
// opportunities and pending messages are kept in arrival order.
type State struct {
	Profiles        []model.Profile         `json:"profiles"`
	Conversations   []model.Conversation    `json:"conversations"`
	Opportunities   []model.Opportunity     `json:"opportunities"`
	PendingMessages []model.PendingMessage  `json:"pending_messages"`
	Notifications   []model.Notification    `json:"notifications"`
	WorkflowConfig  model.WorkflowConfig    `json:"workflow_config"`
	Metrics         *model.DashboardMetrics `json:"metrics,omitempty"`
	Connected       bool                    `json:"connected"`
	SystemStatus    string                  `json:"system_status"`
}

// Memory is a mutex-guarded in-memory store. All mutations are named
// operations; readers get deep copies.
type Memory struct {
	mu     sync.RWMutex
	state  State
	logger zerolog.Logger
}

func NewMemory() *Memory {
	return &Memory{
		state: State{
			WorkflowConfig: DefaultWorkflowConfig(),
			SystemStatus:   "unknown",
		},
		logger: debug.Component("store"),
	}
}

// DefaultWorkflowConfig is the configuration the dashboard starts from before
// the backend reports its own.
func DefaultWorkflowConfig() model.WorkflowConfig {
	return model.WorkflowConfig{
		DiscoveryPipeline: model.DiscoveryPipelineConfig{
			Schedule:         "0 */6 * * *",
			SearchCriteria:   []string{"location:Madrid", "age:25-35"},
			DailyLimit:       50,
			MinCompatibility: 0.7,
			Enabled:          true,
		},
		ConversationManager: model.ConversationManagerConfig{
			CheckInterval:         30,
			ResponseTimeThreshold: 24,
			InactivityThreshold:   72,
			Enabled:               true,
		},
		OpportunityDetector: model.OpportunityDetectorConfig{
			SensitivityLevel:        "medium",
			EnabledOpportunityTypes: []string{"date_suggestion", "contact_exchange", "deep_conversation"},
			ConfidenceThreshold:     0.8,
			Enabled:                 true,
		},
		AutoResponseSystem: model.AutoResponseSystemConfig{
			AutoSendEnabled:      false,
			AutoSendThreshold:    0.9,
			ApprovalTimeoutHours: 2,
			GenerateVariantCount: 3,
			Enabled:              true,
		},
	}
}

func (m *Memory) AddProfile(profile model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Profiles = append(m.state.Profiles, profile)
}

func (m *Memory) AddConversation(conversation model.Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Conversations = append(m.state.Conversations, conversation)
}

// UpdateConversation merges the JSON fields of patch into the conversation
// with the given id. Fields absent from patch are left untouched and a
// messages list in patch replaces the stored one. A patch that does not
// apply cleanly changes nothing. An unknown id is ignored.
func (m *Memory) UpdateConversation(id string, patch json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.conversationIndex(id)
	if i < 0 {
		m.logger.Debug().Str("conversation", id).Msg("update for unknown conversation")
		return
	}
	if len(patch) == 0 {
		return
	}

	// The id in the patch is the lookup key, possibly numeric, and never
	// renames the record.
	patch, err := sjson.DeleteBytes(patch, "id")
	if err != nil {
		m.logger.Warn().Err(err).Str("conversation", id).Msg("failed to apply conversation patch")
		return
	}

	updated := copyConversation(m.state.Conversations[i])
	if gjson.GetBytes(patch, "messages").Exists() {
		updated.Messages = nil
	}
	if err := json.Unmarshal(patch, &updated); err != nil {
		m.logger.Warn().Err(err).Str("conversation", id).Msg("failed to apply conversation patch")
		return
	}
	updated.ID = id
	m.state.Conversations[i] = updated
}

// AddMessage appends message to its conversation and bumps the message count
// and last-message time. A conversation that is not known yet is created.
func (m *Memory) AddMessage(conversationID string, message model.ConversationMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.conversationIndex(conversationID)
	if i < 0 {
		m.state.Conversations = append(m.state.Conversations, model.Conversation{
			ID:          conversationID,
			ProfileName: message.SenderName,
		})
		i = len(m.state.Conversations) - 1
	}

	conv := &m.state.Conversations[i]
	conv.Messages = append(conv.Messages, message)
	conv.MessagesCount++
	if message.SentAt != "" {
		conv.LastMessageAt = message.SentAt
	}
}

func (m *Memory) AddOpportunity(opportunity model.Opportunity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Opportunities = append(m.state.Opportunities, opportunity)
}

func (m *Memory) UpdateOpportunity(id string, status model.OpportunityStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.state.Opportunities {
		if m.state.Opportunities[i].ID == id {
			m.state.Opportunities[i].Status = status
			return true
		}
	}
	return false
}

func (m *Memory) DismissOpportunity(id string) bool {
	return m.UpdateOpportunity(id, model.OpportunityDismissed)
}

func (m *Memory) AddPendingMessage(message model.PendingMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if message.Status == "" {
		message.Status = model.MessagePending
	}
	m.state.PendingMessages = append(m.state.PendingMessages, message)
}

// ApprovePendingMessage marks the message approved, stamping approvedAt.
func (m *Memory) ApprovePendingMessage(id, approvedAt string) bool {
	return m.setPendingStatus(id, model.MessageApproved, approvedAt)
}

func (m *Memory) RejectPendingMessage(id string) bool {
	return m.setPendingStatus(id, model.MessageRejected, "")
}

func (m *Memory) setPendingStatus(id string, status model.MessageStatus, approvedAt string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.state.PendingMessages {
		if m.state.PendingMessages[i].ID == id {
			m.state.PendingMessages[i].Status = status
			if approvedAt != "" {
				m.state.PendingMessages[i].ApprovedAt = approvedAt
			}
			return true
		}
	}
	return false
}

// SetWorkflowEnabled flips the enabled flag of one workflow. Unknown workflow
// names change nothing.
func (m *Memory) SetWorkflowEnabled(workflow model.Workflow, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := &m.state.WorkflowConfig
	switch workflow {
	case model.DiscoveryPipeline:
		cfg.DiscoveryPipeline.Enabled = enabled
	case model.ConversationManager:
		cfg.ConversationManager.Enabled = enabled
	case model.OpportunityDetector:
		cfg.OpportunityDetector.Enabled = enabled
	case model.AutoResponseSystem:
		cfg.AutoResponseSystem.Enabled = enabled
	default:
		m.logger.Warn().Str("workflow", string(workflow)).Msg("unknown workflow")
	}
}

func (m *Memory) SetWorkflowConfig(cfg model.WorkflowConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.WorkflowConfig = copyWorkflowConfig(cfg)
}

func (m *Memory) UpdateMetrics(metrics model.DashboardMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Metrics = &metrics
}

func (m *Memory) SetConnectionStatus(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Connected = connected
}

func (m *Memory) SetSystemStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.SystemStatus = status
}

func (m *Memory) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.Connected
}

func (m *Memory) SystemStatus() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.SystemStatus
}

func (m *Memory) Conversation(id string) (model.Conversation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.conversationIndex(id)
	if i < 0 {
		return model.Conversation{}, false
	}
	return copyConversation(m.state.Conversations[i]), true
}

// Snapshot returns a deep copy of the whole state.
func (m *Memory) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := State{
		Profiles:        make([]model.Profile, len(m.state.Profiles)),
		Conversations:   make([]model.Conversation, len(m.state.Conversations)),
		Opportunities:   make([]model.Opportunity, len(m.state.Opportunities)),
		PendingMessages: make([]model.PendingMessage, len(m.state.PendingMessages)),
		Notifications:   append([]model.Notification(nil), m.state.Notifications...),
		WorkflowConfig:  copyWorkflowConfig(m.state.WorkflowConfig),
		Connected:       m.state.Connected,
		SystemStatus:    m.state.SystemStatus,
	}

	for i, p := range m.state.Profiles {
		p.Photos = append([]string(nil), p.Photos...)
		p.Interests = append([]string(nil), p.Interests...)
		s.Profiles[i] = p
	}
	for i, c := range m.state.Conversations {
		s.Conversations[i] = copyConversation(c)
	}
	for i, o := range m.state.Opportunities {
		o.Signals = append([]string(nil), o.Signals...)
		s.Opportunities[i] = o
	}
	for i, p := range m.state.PendingMessages {
		p.Variants = append([]model.Variant(nil), p.Variants...)
		s.PendingMessages[i] = p
	}
	if m.state.Metrics != nil {
		metrics := *m.state.Metrics
		s.Metrics = &metrics
	}

	return s
}

func (m *Memory) conversationIndex(id string) int {
	for i := range m.state.Conversations {
		if m.state.Conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func copyConversation(c model.Conversation) model.Conversation {
	c.Messages = append([]model.ConversationMessage(nil), c.Messages...)
	return c
}

func copyWorkflowConfig(cfg model.WorkflowConfig) model.WorkflowConfig {
	cfg.DiscoveryPipeline.SearchCriteria = append([]string(nil), cfg.DiscoveryPipeline.SearchCriteria...)
	cfg.OpportunityDetector.EnabledOpportunityTypes = append([]string(nil), cfg.OpportunityDetector.EnabledOpportunityTypes...)
	return cfg
}
