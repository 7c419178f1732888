package socket

import (
	"testing"

	"github.com/kleeedolinux/datesync/debug"
	"github.com/kleeedolinux/datesync/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatchFrame(t *testing.T, frame string) (*fakeStore, *fakeNotifier) {
	t.Helper()

	store := newFakeStore()
	notifier := &fakeNotifier{}
	d := NewDispatcher(store, notifier, debug.Component("test"))

	msg, err := ParseMessage([]byte(frame))
	require.NoError(t, err)
	ev, err := DecodeEvent(msg)
	require.NoError(t, err)

	d.Dispatch(ev)
	return store, notifier
}

func TestDispatch_ProfileDiscovered(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"new_profile_discovered","data":{"id":"p1","name":"Laura Martín","age":26}}`)

	require.Len(t, store.profiles, 1)
	assert.Equal(t, 26, store.profiles[0].Age)
	assert.Equal(t, []notification{{model.SeverityInfo, "New Profile", "Discovered new profile: Laura Martín"}}, notifier.all())
}

func TestDispatch_ConversationStateChanged(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"conversation_state_changed","data":{"id":"conv-2","state":"stale"}}`)

	require.Contains(t, store.updates, "conv-2")
	assert.JSONEq(t, `{"id":"conv-2","state":"stale"}`, string(store.updates["conv-2"]))
	assert.Empty(t, notifier.all())
}

func TestDispatch_MessageReceived(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"new_message_received","data":{"conversation_id":"conv-1","sender_name":"Ana García","content":"¡Hola!"}}`)

	require.Len(t, store.messages, 1)
	assert.Equal(t, "conv-1", store.messages[0].ConversationID)
	assert.Equal(t, []notification{{model.SeverityInfo, "New Message", "New message from Ana García"}}, notifier.all())
}

func TestDispatch_OpportunityDetected(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"opportunity_detected","data":{"type":"date_suggestion","profile_name":"Sofía López"}}`)

	require.Len(t, store.opportunities, 1)
	assert.Equal(t, []notification{{model.SeveritySuccess, "New Opportunity", "date_suggestion opportunity detected for Sofía López"}}, notifier.all())
}

func TestDispatch_MessageGenerated(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"message_generated","data":{"id":"msg-1","profile_name":"Ana García","content":"¿Café?"}}`)

	require.Len(t, store.pending, 1)
	assert.Equal(t, []notification{{model.SeverityInfo, "Message Ready", "New message generated for Ana García"}}, notifier.all())
}

func TestDispatch_MessageDelivery(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"message_sent_success","data":{"profile_name":"Laura Martín"}}`)
	assert.Equal(t, 0, store.mutations())
	assert.Equal(t, []notification{{model.SeveritySuccess, "Message Sent", "Message sent successfully to Laura Martín"}}, notifier.all())

	store, notifier = dispatchFrame(t, `{"type":"message_sent_failed","data":{"profile_name":"Laura Martín","error":"rate limited"}}`)
	assert.Equal(t, 0, store.mutations())
	assert.Equal(t, []notification{{model.SeverityError, "Message Failed", "Failed to send message to Laura Martín: rate limited"}}, notifier.all())
}

func TestDispatch_WorkflowStatusChanged(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"workflow_status_changed","data":{"workflow":"opportunity_detector","enabled":false}}`)

	enabled, ok := store.workflows[model.OpportunityDetector]
	require.True(t, ok)
	assert.False(t, enabled)
	assert.Empty(t, notifier.all())

	store, _ = dispatchFrame(t, `{"type":"workflow_status_changed","data":{"workflow":"mystery","enabled":true}}`)
	assert.Equal(t, 0, store.mutations())
}

func TestDispatch_MetricsUpdated(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"metrics_updated","data":{"today":{"profiles_analyzed":12},"totals":{"success_rate":0.67}}}`)

	require.Len(t, store.metrics, 1)
	assert.Equal(t, 12, store.metrics[0].Today.ProfilesAnalyzed)
	assert.Equal(t, 0.67, store.metrics[0].Totals.SuccessRate)
	assert.Empty(t, notifier.all())
}

func TestDispatch_SystemStatusChanged(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"system_status_changed","data":{"status":"running"}}`)
	assert.Equal(t, []string{"running"}, store.statuses)
	assert.Empty(t, notifier.all())

	store, notifier = dispatchFrame(t, `{"type":"system_status_changed","data":{"status":"error","message":"scraper down"}}`)
	assert.Equal(t, []string{"error"}, store.statuses)
	assert.Equal(t, []notification{{model.SeverityError, "System Error", "scraper down"}}, notifier.all())

	_, notifier = dispatchFrame(t, `{"type":"system_status_changed","data":{"status":"error"}}`)
	assert.Equal(t, []notification{{model.SeverityError, "System Error", "System encountered an error"}}, notifier.all())
}

func TestDispatch_ErrorFrame(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"error","data":{"message":"quota exceeded"}}`)
	assert.Equal(t, 0, store.mutations())
	assert.Equal(t, []notification{{model.SeverityError, "Error", "quota exceeded"}}, notifier.all())

	_, notifier = dispatchFrame(t, `{"type":"error"}`)
	assert.Equal(t, []notification{{model.SeverityError, "Error", "An error occurred"}}, notifier.all())
}

func TestDispatch_UnknownType(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"something_new","data":{"a":1}}`)
	assert.Equal(t, 0, store.mutations())
	assert.Empty(t, store.statuses)
	assert.Empty(t, notifier.all())
}

func TestDispatch_NilNotifier(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, nil, debug.Component("test"))

	d.Dispatch(&ProfileDiscovered{Profile: model.Profile{ID: "p1", Name: "Ana García"}})
	assert.Equal(t, 1, store.profileCount())
}

func TestDispatch_OpportunityWithUnexpectedFields(t *testing.T) {
	store, notifier := dispatchFrame(t, `{"type":"opportunity_detected","data":{"type":"story_like","profile_name":"Ana","confidence":"high"}}`)

	require.Len(t, store.opportunities, 1)
	assert.JSONEq(t, `{"type":"story_like","profile_name":"Ana","confidence":"high"}`, string(store.opportunities[0].Raw))
	assert.Equal(t, []notification{{model.SeveritySuccess, "New Opportunity", "story_like opportunity detected for Ana"}}, notifier.all())
}
