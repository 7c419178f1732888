package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/kleeedolinux/datesync/model"
)

func (c *Client) AnalyzeProfile(ctx context.Context, req ProfileAnalysisRequest) (*ProfileAnalysis, error) {
	var out ProfileAnalysis
	err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/profiles/analyze",
		body:        req,
		out:         &out,
		requireData: true,
		failure:     "Profile analysis failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Conversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	err := c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/conversations",
		out:     &out,
		failure: "Get conversations failed",
	})
	return out, err
}

func (c *Client) ConversationHistory(ctx context.Context, conversationID string) ([]model.ConversationMessage, error) {
	var out []model.ConversationMessage
	err := c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/conversations/" + url.PathEscape(conversationID) + "/messages",
		out:     &out,
		failure: "Get conversation history failed",
	})
	return out, err
}

func (c *Client) GenerateMessage(ctx context.Context, req MessageGenerationRequest) (*MessageGeneration, error) {
	var out MessageGeneration
	err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/messages/generate",
		body:        req,
		out:         &out,
		requireData: true,
		failure:     "Message generation failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string) error {
	return c.do(ctx, call{
		method:  http.MethodPost,
		path:    "/messages/send",
		body:    sendMessageRequest{ConversationID: conversationID, Content: content},
		failure: "Message send failed",
	})
}

func (c *Client) DetectOpportunities(ctx context.Context, req OpportunityDetectionRequest) (*OpportunityDetection, error) {
	var out OpportunityDetection
	err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/opportunities/detect",
		body:        req,
		out:         &out,
		requireData: true,
		failure:     "Opportunity detection failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics returns the raw analytics document for timeframe (for example
// "7d" or "30d").
func (c *Client) Analytics(ctx context.Context, timeframe string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/analytics",
		query:   url.Values{"timeframe": []string{timeframe}},
		out:     &out,
		failure: "Get analytics failed",
	})
	return out, err
}

func (c *Client) Metrics(ctx context.Context) (*model.DashboardMetrics, error) {
	var out model.DashboardMetrics
	err := c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/metrics",
		out:     &out,
		failure: "Get metrics failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WorkflowConfig fetches the configuration of one workflow and decodes it
// into out, which should point at the matching *Config struct in model.
func (c *Client) WorkflowConfig(ctx context.Context, workflow model.Workflow, out interface{}) error {
	return c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/config/" + url.PathEscape(string(workflow)),
		out:     out,
		failure: "Get config failed",
	})
}

func (c *Client) UpdateWorkflowConfig(ctx context.Context, workflow model.Workflow, cfg interface{}) error {
	return c.do(ctx, call{
		method:  http.MethodPut,
		path:    "/config/" + url.PathEscape(string(workflow)),
		body:    cfg,
		failure: "Config update failed",
	})
}

func (c *Client) SystemStatus(ctx context.Context) (*model.SystemStatus, error) {
	var out model.SystemStatus
	err := c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/system/status",
		out:     &out,
		failure: "Get system status failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// HealthCheck reports whether the backend answered its health endpoint with a
// successful envelope.
func (c *Client) HealthCheck(ctx context.Context) bool {
	return c.do(ctx, call{method: http.MethodGet, path: "/health", failure: "Health check failed"}) == nil
}
