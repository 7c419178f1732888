package api

import "encoding/json"

// envelope is the wrapper every backend response is sent in.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ProfileAnalysisRequest struct {
	InstagramURL     string `json:"instagram_url"`
	DetailedAnalysis bool   `json:"detailed_analysis,omitempty"`
}

type LifestyleAnalysis struct {
	ActivityLevel     string   `json:"activity_level"`
	SocialPreferences string   `json:"social_preferences"`
	Values            []string `json:"values"`
}

type CompatibilityDetails struct {
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
	Reasons        []string           `json:"reasons"`
	Concerns       []string           `json:"concerns"`
}

type ProfileAnalysis struct {
	ProfileID            string               `json:"profile_id"`
	Name                 string               `json:"name"`
	Age                  int                  `json:"age,omitempty"`
	Location             string               `json:"location,omitempty"`
	CompatibilityScore   float64              `json:"compatibility_score"`
	Photos               []string             `json:"photos"`
	Bio                  string               `json:"bio,omitempty"`
	Interests            []string             `json:"interests"`
	LifestyleAnalysis    LifestyleAnalysis    `json:"lifestyle_analysis"`
	CompatibilityDetails CompatibilityDetails `json:"compatibility_details"`
}

type MessageType string

const (
	MessageOpener              MessageType = "opener"
	MessageFollowUp            MessageType = "follow_up"
	MessageOpportunityResponse MessageType = "opportunity_response"
)

type Tone string

const (
	ToneCasual   Tone = "casual"
	ToneFlirty   Tone = "flirty"
	ToneFriendly Tone = "friendly"
	ToneHumorous Tone = "humorous"
)

type MessageGenerationRequest struct {
	ConversationID string      `json:"conversation_id"`
	Context        string      `json:"context"`
	MessageType    MessageType `json:"message_type"`
	Tone           Tone        `json:"tone"`
}

type GeneratedVariant struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Tone       string  `json:"tone"`
	Reasoning  string  `json:"reasoning"`
}

type ContextAnalysis struct {
	Mood            string `json:"mood"`
	EngagementLevel string `json:"engagement_level"`
	SuggestedTiming string `json:"suggested_timing"`
}

type MessageGeneration struct {
	Variants        []GeneratedVariant `json:"variants"`
	ContextAnalysis ContextAnalysis    `json:"context_analysis"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type OpportunityDetectionRequest struct {
	ConversationID string            `json:"conversation_id"`
	RecentActivity []json.RawMessage `json:"recent_activity"`
}

type DetectedOpportunity struct {
	Type                 string  `json:"type"`
	Description          string  `json:"description"`
	Confidence           float64 `json:"confidence"`
	Priority             string  `json:"priority"`
	SuggestedResponse    string  `json:"suggested_response"`
	TimingRecommendation string  `json:"timing_recommendation"`
}

type OpportunityDetection struct {
	Opportunities []DetectedOpportunity `json:"opportunities"`
}
