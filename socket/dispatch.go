package socket

import (
	"fmt"

	"github.com/kleeedolinux/datesync/model"

	"github.com/rs/zerolog"
)

// Dispatcher applies decoded inbound events to a Store and a Notifier. It
// holds no state of its own.
type Dispatcher struct {
	store    Store
	notifier Notifier
	logger   zerolog.Logger
}

func NewDispatcher(store Store, notifier Notifier, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

func (d *Dispatcher) Dispatch(ev InboundEvent) {
	switch ev := ev.(type) {
	case *ProfileDiscovered:
		d.store.AddProfile(ev.Profile)
		d.notify(model.SeverityInfo, "New Profile",
			fmt.Sprintf("Discovered new profile: %s", ev.Profile.Name))

	case *ConversationStateChanged:
		d.store.UpdateConversation(ev.Update.ID, ev.Update.Patch)

	case *MessageReceived:
		d.store.AddMessage(ev.Message.ConversationID, ev.Message)
		d.notify(model.SeverityInfo, "New Message",
			fmt.Sprintf("New message from %s", ev.Message.SenderName))

	case *OpportunityDetected:
		d.store.AddOpportunity(ev.Opportunity)
		d.notify(model.SeveritySuccess, "New Opportunity",
			fmt.Sprintf("%s opportunity detected for %s", ev.Opportunity.Type, ev.Opportunity.ProfileName))

	case *MessageGenerated:
		d.store.AddPendingMessage(ev.Message)
		d.notify(model.SeverityInfo, "Message Ready",
			fmt.Sprintf("New message generated for %s", ev.Message.ProfileName))

	case *MessageSentSuccess:
		d.notify(model.SeveritySuccess, "Message Sent",
			fmt.Sprintf("Message sent successfully to %s", ev.Delivery.ProfileName))

	case *MessageSentFailed:
		d.notify(model.SeverityError, "Message Failed",
			fmt.Sprintf("Failed to send message to %s: %s", ev.Delivery.ProfileName, ev.Delivery.Error))

	case *WorkflowStatusChanged:
		if !ev.Status.Workflow.Known() {
			d.logger.Warn().Str("workflow", string(ev.Status.Workflow)).Msg("status change for unknown workflow")
			return
		}
		d.store.SetWorkflowEnabled(ev.Status.Workflow, ev.Status.Enabled)

	case *MetricsUpdated:
		d.store.UpdateMetrics(ev.Metrics)

	case *SystemStatusChanged:
		d.store.SetSystemStatus(ev.Status.Status)
		if ev.Status.Status == "error" {
			message := ev.Status.Message
			if message == "" {
				message = "System encountered an error"
			}
			d.notify(model.SeverityError, "System Error", message)
		}

	case *ErrorReceived:
		message := ev.Detail.Message
		if message == "" {
			message = "An error occurred"
		}
		d.notify(model.SeverityError, "Error", message)

	case *Unknown:
		d.logger.Info().Str("type", ev.Name).Msg("unknown message type")

	default:
		d.logger.Info().Str("type", ev.Type()).Msg("unhandled message type")
	}
}

func (d *Dispatcher) notify(severity model.Severity, title, message string) {
	if d.notifier == nil {
		return
	}
	d.notifier.Notify(severity, title, message)
}
