package simulator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/kleeedolinux/datesync/model"
	"github.com/kleeedolinux/datesync/socket"

	"github.com/google/uuid"
)

type Event struct {
	Type string
	Data interface{}
}

var conversationStates = []model.ConversationState{
	model.ConversationEngaged,
	model.ConversationWarming,
	model.ConversationActive,
	model.ConversationStale,
}

// Generator produces a plausible stream of backend events built from a fixed
// set of mock profiles and conversations.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
	metrics model.DashboardMetrics
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
		metrics: model.DashboardMetrics{
			Totals: model.MetricTotals{
				TotalProfiles:      len(mockProfiles),
				TotalConversations: len(mockConversations),
				SuccessRate:        0.67,
			},
		},
	}
}

// Conversations returns the conversations the generated events refer to, so a
// consumer can seed its state before the stream starts.
func Conversations() []model.Conversation {
	out := make([]model.Conversation, len(mockConversations))
	copy(out, mockConversations)
	return out
}

func (g *Generator) Next() Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch n := g.rng.Intn(100); {
	case n < 25:
		return g.messageReceived()
	case n < 40:
		return g.conversationStateChanged()
	case n < 55:
		return g.opportunityDetected()
	case n < 70:
		return g.messageGenerated()
	case n < 80:
		return g.profileDiscovered()
	case n < 92:
		return g.metricsUpdated()
	case n < 97:
		return g.workflowStatusChanged()
	default:
		return Event{Type: socket.TypeSystemStatusChanged, Data: model.SystemStatus{Status: "running"}}
	}
}

func (g *Generator) stamp() string {
	return g.now().UTC().Format(model.TimestampLayout)
}

func (g *Generator) profileDiscovered() Event {
	p := mockProfiles[g.rng.Intn(len(mockProfiles))]
	p.ID = uuid.NewString()
	p.Status = "discovered"
	p.DiscoveredAt = g.stamp()
	p.Interests = append([]string(nil), p.Interests...)

	g.metrics.Today.ProfilesAnalyzed++
	g.metrics.Totals.TotalProfiles++
	return Event{Type: socket.TypeProfileDiscovered, Data: p}
}

func (g *Generator) messageReceived() Event {
	c := mockConversations[g.rng.Intn(len(mockConversations))]

	g.metrics.Today.ResponsesReceived++
	return Event{Type: socket.TypeMessageReceived, Data: model.ConversationMessage{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		SenderName:     c.ProfileName,
		Sender:         "match",
		Content:        mockReplies[g.rng.Intn(len(mockReplies))],
		SentAt:         g.stamp(),
	}}
}

func (g *Generator) conversationStateChanged() Event {
	c := mockConversations[g.rng.Intn(len(mockConversations))]

	return Event{Type: socket.TypeConversationStateChanged, Data: map[string]interface{}{
		"id":               c.ID,
		"state":            conversationStates[g.rng.Intn(len(conversationStates))],
		"engagement_score": float64(50 + g.rng.Intn(50)),
	}}
}

func (g *Generator) opportunityDetected() Event {
	o := mockOpportunities[g.rng.Intn(len(mockOpportunities))]
	o.ID = uuid.NewString()
	o.Status = model.OpportunityPending
	o.DetectedAt = g.stamp()
	o.Signals = append([]string(nil), o.Signals...)

	g.metrics.Today.OpportunitiesDetected++
	return Event{Type: socket.TypeOpportunityDetected, Data: o}
}

func (g *Generator) messageGenerated() Event {
	i := g.rng.Intn(len(mockConversations))
	c := mockConversations[i]
	opp := mockOpportunities[i]

	return Event{Type: socket.TypeMessageGenerated, Data: model.PendingMessage{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		ProfileName:    c.ProfileName,
		Content:        opp.SuggestedResponse,
		Variants:       append([]model.Variant(nil), mockVariants[i]...),
		Confidence:     opp.Confidence,
		Status:         model.MessagePending,
		CreatedAt:      g.stamp(),
	}}
}

func (g *Generator) metricsUpdated() Event {
	g.metrics.Trends = model.MetricTrends{
		ProfilesChange:      float64(g.rng.Intn(40) - 10),
		MessagesChange:      float64(g.rng.Intn(40) - 10),
		OpportunitiesChange: float64(g.rng.Intn(40) - 10),
		ResponsesChange:     float64(g.rng.Intn(40) - 10),
		MatchesChange:       float64(g.rng.Intn(40) - 10),
	}
	return Event{Type: socket.TypeMetricsUpdated, Data: g.metrics}
}

func (g *Generator) workflowStatusChanged() Event {
	workflows := []model.Workflow{
		model.DiscoveryPipeline,
		model.ConversationManager,
		model.OpportunityDetector,
		model.AutoResponseSystem,
	}
	return Event{Type: socket.TypeWorkflowStatusChanged, Data: model.WorkflowStatus{
		Workflow: workflows[g.rng.Intn(len(workflows))],
		Enabled:  g.rng.Intn(4) != 0,
	}}
}

// MessageSent records an approved message as delivered and returns the
// matching success event.
func (g *Generator) MessageSent(delivery model.MessageDelivery) Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.metrics.Today.MessagesSent++
	return Event{Type: socket.TypeMessageSentSuccess, Data: delivery}
}

func (g *Generator) Metrics() model.DashboardMetrics {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.metrics
}

// Run broadcasts one generated event every interval until ctx is done.
func (g *Generator) Run(ctx context.Context, hub *Hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ev := g.Next()
			if err := hub.Broadcast(ev.Type, ev.Data); err != nil && !errors.Is(err, ErrNoPeers) {
				hub.logger.Warn().Err(err).Str("type", ev.Type).Msg("failed to broadcast event")
			}
		}
	}
}
