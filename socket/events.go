package socket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kleeedolinux/datesync/model"

	"github.com/tidwall/gjson"
)

const (
	TypeProfileDiscovered        = "new_profile_discovered"
	TypeConversationStateChanged = "conversation_state_changed"
	TypeMessageReceived          = "new_message_received"
	TypeOpportunityDetected      = "opportunity_detected"
	TypeMessageGenerated         = "message_generated"
	TypeMessageSentSuccess       = "message_sent_success"
	TypeMessageSentFailed        = "message_sent_failed"
	TypeWorkflowStatusChanged    = "workflow_status_changed"
	TypeMetricsUpdated           = "metrics_updated"
	TypeSystemStatusChanged      = "system_status_changed"
	TypeError                    = "error"
)

// InboundEvent is the decoded form of a Message. The set of implementations is
// closed to this package; anything the client does not recognise decodes to
// *Unknown.
type InboundEvent interface {
	Type() string
	inbound()
}

type ProfileDiscovered struct{ Profile model.Profile }

type ConversationStateChanged struct{ Update model.ConversationUpdate }

type MessageReceived struct{ Message model.ConversationMessage }

type OpportunityDetected struct{ Opportunity model.Opportunity }

type MessageGenerated struct{ Message model.PendingMessage }

type MessageSentSuccess struct{ Delivery model.MessageDelivery }

type MessageSentFailed struct{ Delivery model.MessageDelivery }

type WorkflowStatusChanged struct{ Status model.WorkflowStatus }

type MetricsUpdated struct{ Metrics model.DashboardMetrics }

type SystemStatusChanged struct{ Status model.SystemStatus }

type ErrorReceived struct{ Detail model.ServerError }

type Unknown struct {
	Name string
	Data json.RawMessage
}

func (*ProfileDiscovered) Type() string        { return TypeProfileDiscovered }
func (*ConversationStateChanged) Type() string { return TypeConversationStateChanged }
func (*MessageReceived) Type() string          { return TypeMessageReceived }
func (*OpportunityDetected) Type() string      { return TypeOpportunityDetected }
func (*MessageGenerated) Type() string         { return TypeMessageGenerated }
func (*MessageSentSuccess) Type() string       { return TypeMessageSentSuccess }
func (*MessageSentFailed) Type() string        { return TypeMessageSentFailed }
func (*WorkflowStatusChanged) Type() string    { return TypeWorkflowStatusChanged }
func (*MetricsUpdated) Type() string           { return TypeMetricsUpdated }
func (*SystemStatusChanged) Type() string      { return TypeSystemStatusChanged }
func (*ErrorReceived) Type() string            { return TypeError }
func (u *Unknown) Type() string                { return u.Name }

func (*ProfileDiscovered) inbound()        {}
func (*ConversationStateChanged) inbound() {}
func (*MessageReceived) inbound()          {}
func (*OpportunityDetected) inbound()      {}
func (*MessageGenerated) inbound()         {}
func (*MessageSentSuccess) inbound()       {}
func (*MessageSentFailed) inbound()        {}
func (*WorkflowStatusChanged) inbound()    {}
func (*MetricsUpdated) inbound()           {}
func (*SystemStatusChanged) inbound()      {}
func (*ErrorReceived) inbound()            {}
func (*Unknown) inbound()                  {}

// ParseMessage splits a raw frame into its type, data and timestamp. The frame
// must be a JSON object with a non-empty string type.
func ParseMessage(raw []byte) (Message, error) {
	if !gjson.ValidBytes(raw) {
		return Message{}, ErrInvalidMessage
	}

	frame := gjson.ParseBytes(raw)
	if !frame.IsObject() {
		return Message{}, ErrInvalidMessage
	}

	typ := frame.Get("type")
	if typ.Type != gjson.String || typ.Str == "" {
		return Message{}, ErrInvalidMessage
	}

	msg := Message{
		Type:      typ.Str,
		Timestamp: frame.Get("timestamp").String(),
	}
	if data := frame.Get("data"); data.Exists() {
		msg.Data = json.RawMessage(data.Raw)
	}
	return msg, nil
}

// DecodeEvent maps a Message onto its typed event. Fields are decoded as far
// as their types allow and the fields the dispatcher relies on are read
// directly from the payload, so a record keeps its raw data even when the
// backend sends a shape the model does not expect. Data that is not an object
// or lacks an identifier the dispatcher needs is an ErrInvalidMessage. An
// unrecognised type is not an error.
func DecodeEvent(msg Message) (InboundEvent, error) {
	var (
		ev     InboundEvent
		target interface{}
	)

	switch msg.Type {
	case TypeProfileDiscovered:
		e := &ProfileDiscovered{}
		ev, target = e, &e.Profile
	case TypeConversationStateChanged:
		e := &ConversationStateChanged{}
		ev, target = e, &e.Update
	case TypeMessageReceived:
		e := &MessageReceived{}
		ev, target = e, &e.Message
	case TypeOpportunityDetected:
		e := &OpportunityDetected{}
		ev, target = e, &e.Opportunity
	case TypeMessageGenerated:
		e := &MessageGenerated{}
		ev, target = e, &e.Message
	case TypeMessageSentSuccess:
		e := &MessageSentSuccess{}
		ev, target = e, &e.Delivery
	case TypeMessageSentFailed:
		e := &MessageSentFailed{}
		ev, target = e, &e.Delivery
	case TypeWorkflowStatusChanged:
		e := &WorkflowStatusChanged{}
		ev, target = e, &e.Status
	case TypeMetricsUpdated:
		e := &MetricsUpdated{}
		ev, target = e, &e.Metrics
	case TypeSystemStatusChanged:
		e := &SystemStatusChanged{}
		ev, target = e, &e.Status
	case TypeError:
		e := &ErrorReceived{}
		ev, target = e, &e.Detail
	default:
		return &Unknown{Name: msg.Type, Data: msg.Data}, nil
	}

	if err := decodeData(msg.Data, target); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, msg.Type, err)
	}

	data := gjson.ParseBytes(msg.Data)
	switch e := ev.(type) {
	case *ProfileDiscovered:
		e.Profile.ID = stringField(data, "id")
		e.Profile.Name = stringField(data, "name")
		e.Profile.Raw = msg.Data
	case *ConversationStateChanged:
		e.Update.ID = stringField(data, "id")
		if e.Update.ID == "" {
			return nil, fmt.Errorf("%w: %s without id", ErrInvalidMessage, msg.Type)
		}
		e.Update.Patch = msg.Data
	case *MessageReceived:
		e.Message.ConversationID = stringField(data, "conversation_id")
		if e.Message.ConversationID == "" {
			return nil, fmt.Errorf("%w: %s without conversation_id", ErrInvalidMessage, msg.Type)
		}
		e.Message.ID = stringField(data, "id")
		e.Message.SenderName = stringField(data, "sender_name")
		e.Message.Raw = msg.Data
	case *OpportunityDetected:
		e.Opportunity.ID = stringField(data, "id")
		e.Opportunity.Type = stringField(data, "type")
		e.Opportunity.ProfileName = stringField(data, "profile_name")
		e.Opportunity.Raw = msg.Data
	case *MessageGenerated:
		e.Message.ID = stringField(data, "id")
		e.Message.ConversationID = stringField(data, "conversation_id")
		e.Message.ProfileName = stringField(data, "profile_name")
		e.Message.Raw = msg.Data
	case *MessageSentSuccess:
		readDelivery(&e.Delivery, data)
	case *MessageSentFailed:
		readDelivery(&e.Delivery, data)
	case *WorkflowStatusChanged:
		workflow := data.Get("workflow")
		if workflow.Type != gjson.String || workflow.Str == "" {
			return nil, fmt.Errorf("%w: %s without workflow", ErrInvalidMessage, msg.Type)
		}
		e.Status.Workflow = model.Workflow(workflow.Str)
		e.Status.Enabled = data.Get("enabled").Bool()
	case *SystemStatusChanged:
		e.Status.Status = stringField(data, "status")
		e.Status.Message = stringField(data, "message")
	case *ErrorReceived:
		e.Detail.Message = stringField(data, "message")
	}

	return ev, nil
}

// decodeData fills target from data. Fields whose JSON type does not match
// the model are left at their zero value.
func decodeData(data json.RawMessage, target interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if !gjson.ParseBytes(data).IsObject() {
		return errors.New("data is not an object")
	}

	var typeErr *json.UnmarshalTypeError
	if err := json.Unmarshal(data, target); err != nil && !errors.As(err, &typeErr) {
		return err
	}
	return nil
}

func readDelivery(d *model.MessageDelivery, data gjson.Result) {
	d.MessageID = stringField(data, "message_id")
	d.ConversationID = stringField(data, "conversation_id")
	d.ProfileName = stringField(data, "profile_name")
	d.Error = stringField(data, "error")
}

// stringField reads key as text. Numbers keep their literal form; any other
// JSON type reads as empty.
func stringField(data gjson.Result, key string) string {
	v := data.Get(key)
	switch v.Type {
	case gjson.String, gjson.Number:
		return v.String()
	}
	return ""
}
