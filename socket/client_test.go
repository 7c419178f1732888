package socket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kleeedolinux/datesync/socket/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const waitFor = time.Second

type harness struct {
	client   *Client
	dialer   *fakeDialer
	clock    *fakeClock
	store    *fakeStore
	notifier *fakeNotifier
}

func newHarness(t *testing.T, dialer *fakeDialer, opts ...ClientOption) *harness {
	t.Helper()

	h := &harness{
		dialer:   dialer,
		clock:    newFakeClock(),
		store:    newFakeStore(),
		notifier: &fakeNotifier{},
	}
	opts = append([]ClientOption{WithClock(h.clock)}, opts...)
	h.client = NewClient(dialer, h.store, h.notifier, opts...)
	t.Cleanup(h.client.Disconnect)
	return h
}

func TestClient_ConnectOpens(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))

	require.Equal(t, StateIdle, h.client.State())
	require.NoError(t, h.client.Connect())

	assert.Equal(t, StateOpen, h.client.State())
	assert.True(t, h.client.IsConnected())
	assert.Equal(t, 0, h.client.RetryCount())
	assert.Equal(t, []bool{true}, h.store.connectedHistory())
	assert.Empty(t, conn.sentFrames())
	assert.NotEmpty(t, h.client.ID())
}

func TestClient_SendsAuthFrameOnOpen(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}), WithTokenSource(staticToken("secret")))

	require.NoError(t, h.client.Connect())

	frames := conn.sentFrames()
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"type":"auth","token":"secret"}`, string(frames[0]))
}

func TestClient_NoAuthFrameForEmptyToken(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}), WithTokenSource(staticToken("")))

	require.NoError(t, h.client.Connect())
	assert.Empty(t, conn.sentFrames())
}

func TestClient_ConnectWhileOpenIsNoop(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))

	require.NoError(t, h.client.Connect())
	require.NoError(t, h.client.Connect())

	assert.Equal(t, 1, h.dialer.dialCount())
	assert.Equal(t, []bool{true}, h.store.connectedHistory())
}

func TestClient_DispatchesFrames(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	conn.push(`{"type":"new_profile_discovered","data":{"id":"p1","name":"Ana García"},"timestamp":"2024-01-15T10:30:00.000Z"}`)

	require.Eventually(t, func() bool {
		return h.store.profileCount() == 1
	}, waitFor, 5*time.Millisecond)

	notes := h.notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "New Profile", notes[0].title)
	assert.Equal(t, "Discovered new profile: Ana García", notes[0].message)
}

func TestClient_MessagesAppliedInArrivalOrder(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	conn.push(`{"type":"new_message_received","data":{"conversation_id":"conv-1","sender_name":"Ana García","content":"hola"}}`)
	conn.push(`{"type":"new_message_received","data":{"conversation_id":"conv-2","sender_name":"Laura Martín","content":"buenas"}}`)

	require.Eventually(t, func() bool {
		return len(h.store.messageTargets()) == 2 && len(h.notifier.all()) == 2
	}, waitFor, 5*time.Millisecond)
	assert.Equal(t, []string{"conv-1", "conv-2"}, h.store.messageTargets())

	notes := h.notifier.all()
	require.Len(t, notes, 2)
	assert.Equal(t, "New message from Ana García", notes[0].message)
	assert.Equal(t, "New message from Laura Martín", notes[1].message)
}

func TestClient_MalformedFramesAreDiscarded(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	conn.push(`not json`)
	conn.push(`{"data":{"id":"p0"}}`)
	conn.push(`{"type":42}`)
	conn.push(`{"type":"new_profile_discovered","data":"oops"}`)
	conn.push(`{"type":"new_profile_discovered","data":{"id":"p1","name":"Sofía López"}}`)

	require.Eventually(t, func() bool {
		return h.store.profileCount() == 1
	}, waitFor, 5*time.Millisecond)

	assert.Equal(t, 1, h.store.mutations())
	assert.Equal(t, []string{"New Profile"}, h.notifier.titles())
	assert.Equal(t, StateOpen, h.client.State())
}

func TestClient_UnknownTypeMutatesNothing(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))

	seen := make(chan Message, 1)
	h.client.On("heartbeat", func(msg Message) {
		seen <- msg
	})
	require.NoError(t, h.client.Connect())

	conn.push(`{"type":"heartbeat","data":{"n":1}}`)

	select {
	case msg := <-seen:
		assert.Equal(t, "heartbeat", msg.Type)
		assert.JSONEq(t, `{"n":1}`, string(msg.Data))
	case <-time.After(waitFor):
		t.Fatal("handler not called")
	}
	assert.Equal(t, 0, h.store.mutations())
	assert.Empty(t, h.notifier.all())
}

func TestClient_HandlersRunAfterStoreUpdate(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))

	var (
		mu    sync.Mutex
		order []string
	)
	h.client.On(TypeProfileDiscovered, func(msg Message) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, gjson.GetBytes(msg.Data, "id").String())
		assert.Equal(t, len(order), h.store.profileCount())
	})
	require.NoError(t, h.client.Connect())

	conn.push(`{"type":"new_profile_discovered","data":{"id":"a","name":"A"}}`)
	conn.push(`{"type":"new_profile_discovered","data":{"id":"b","name":"B"}}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, waitFor, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)

	h.client.Off(TypeProfileDiscovered)
	conn.push(`{"type":"new_profile_discovered","data":{"id":"c","name":"C"}}`)
	require.Eventually(t, func() bool {
		return h.store.profileCount() == 3
	}, waitFor, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, order, 2)
}

func TestClient_AbnormalCloseReconnects(t *testing.T) {
	first, second := newFakeConn(), newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: first}, dialResult{conn: second}))
	require.NoError(t, h.client.Connect())

	first.remoteClose(4000, "going away")

	require.Eventually(t, func() bool {
		return h.clock.count() == 1
	}, waitFor, 5*time.Millisecond)

	assert.Equal(t, StateClosed, h.client.State())
	assert.Equal(t, []time.Duration{time.Second}, h.clock.delays())
	delay, pending := h.client.ReconnectPending()
	assert.True(t, pending)
	assert.Equal(t, time.Second, delay)
	code, reason := h.client.LastClose()
	assert.Equal(t, 4000, code)
	assert.Equal(t, "going away", reason)
	assert.Empty(t, h.notifier.all(), "close frames are not socket errors")

	h.clock.fireLast()

	assert.Equal(t, StateOpen, h.client.State())
	assert.Equal(t, 2, h.dialer.dialCount())
	assert.Equal(t, 0, h.client.RetryCount())
	assert.Equal(t, []bool{true, false, true}, h.store.connectedHistory())
	_, pending = h.client.ReconnectPending()
	assert.False(t, pending)
}

func TestClient_NetworkErrorNotifiesAndReconnects(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	conn.fail(errors.New("connection reset by peer"))

	require.Eventually(t, func() bool {
		return h.clock.count() == 1
	}, waitFor, 5*time.Millisecond)

	code, _ := h.client.LastClose()
	assert.Equal(t, transport.CloseAbnormalClosure, code)

	notes := h.notifier.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "Connection Error", notes[0].title)
	assert.Equal(t, "WebSocket connection failed. Real-time updates may not work.", notes[0].message)
}

func TestClient_NormalCloseDoesNotReconnect(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	conn.remoteClose(transport.CloseNormalClosure, "bye")

	require.Eventually(t, func() bool {
		return h.client.State() == StateClosed
	}, waitFor, 5*time.Millisecond)

	assert.Equal(t, 0, h.clock.count())
	assert.Empty(t, h.notifier.all())
	assert.Equal(t, []bool{true, false}, h.store.connectedHistory())
	assert.Empty(t, h.store.statusHistory())
}

func TestClient_BackoffSequenceAndExhaustion(t *testing.T) {
	h := newHarness(t, newFakeDialer())

	require.Error(t, h.client.Connect())
	for i := 0; i < 10 && h.clock.count() > i; i++ {
		h.clock.fireLast()
	}

	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
	}, h.clock.delays())
	assert.Equal(t, 6, h.dialer.dialCount())
	assert.Equal(t, 5, h.client.RetryCount())
	assert.Equal(t, []string{SystemStatusDisconnected}, h.store.statusHistory())
	assert.Len(t, h.notifier.all(), 6)
	assert.Equal(t, StateClosed, h.client.State())

	code, _ := h.client.LastClose()
	assert.Equal(t, transport.CloseAbnormalClosure, code)
}

func TestClient_DelayIsCapped(t *testing.T) {
	h := newHarness(t, newFakeDialer(),
		WithReconnectAttempts(-1),
		WithReconnectDelay(time.Second),
		WithMaxReconnectDelay(3*time.Second),
	)

	require.Error(t, h.client.Connect())
	for i := 0; i < 5; i++ {
		h.clock.fireLast()
	}

	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		3 * time.Second,
		3 * time.Second,
		3 * time.Second,
		3 * time.Second,
	}, h.clock.delays())
	assert.Empty(t, h.store.statusHistory())
}

func TestClient_ZeroAttemptsDisablesReconnect(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}), WithReconnectAttempts(0))
	require.NoError(t, h.client.Connect())

	conn.remoteClose(transport.CloseAbnormalClosure, "")

	require.Eventually(t, func() bool {
		return len(h.store.statusHistory()) == 1
	}, waitFor, 5*time.Millisecond)
	assert.Equal(t, 0, h.clock.count())
	assert.Equal(t, []string{SystemStatusDisconnected}, h.store.statusHistory())
}

func TestClient_RetryCountResetsOnOpen(t *testing.T) {
	conn := newFakeConn()
	dialer := newFakeDialer(
		dialResult{err: errors.New("refused")},
		dialResult{err: errors.New("refused")},
		dialResult{conn: conn},
	)
	h := newHarness(t, dialer)

	require.Error(t, h.client.Connect())
	h.clock.fireLast()
	assert.Equal(t, 1, h.client.RetryCount())
	h.clock.fireLast()

	assert.Equal(t, StateOpen, h.client.State())
	assert.Equal(t, 0, h.client.RetryCount())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, h.clock.delays())

	// a fresh failure run starts from the base delay again
	next := newFakeConn()
	dialer.queue(dialResult{conn: next})
	conn.remoteClose(transport.CloseAbnormalClosure, "")

	require.Eventually(t, func() bool {
		return h.clock.count() == 3
	}, waitFor, 5*time.Millisecond)
	assert.Equal(t, time.Second, h.clock.delays()[2])
}

func TestClient_Disconnect(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	h.client.Disconnect()

	closed, code, reason := conn.closeStatus()
	assert.True(t, closed)
	assert.Equal(t, transport.CloseNormalClosure, code)
	assert.Equal(t, "User disconnected", reason)
	assert.Equal(t, StateClosed, h.client.State())
	assert.Equal(t, []bool{true, false}, h.store.connectedHistory())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, h.clock.count())
	assert.Empty(t, h.notifier.all())
	assert.Equal(t, []bool{true, false}, h.store.connectedHistory())

	h.client.Disconnect()
	assert.Equal(t, []bool{true, false}, h.store.connectedHistory())
}

func TestClient_DisconnectBeforeConnect(t *testing.T) {
	h := newHarness(t, newFakeDialer())

	h.client.Disconnect()

	assert.Equal(t, StateIdle, h.client.State())
	assert.Empty(t, h.store.connectedHistory())
	assert.Equal(t, 0, h.dialer.dialCount())
}

func TestClient_DisconnectCancelsPendingReconnect(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	conn.remoteClose(4001, "")
	require.Eventually(t, func() bool {
		return h.clock.count() == 1
	}, waitFor, 5*time.Millisecond)

	h.client.Disconnect()
	assert.True(t, h.clock.last().stopped)

	// a timer that raced past Stop must not reconnect
	h.clock.fireLast()
	assert.Equal(t, 1, h.dialer.dialCount())
	assert.Equal(t, StateClosed, h.client.State())
}

func TestClient_DisconnectDuringDial(t *testing.T) {
	dialer := newFakeDialer()
	dialer.block = true
	h := newHarness(t, dialer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.client.Connect()
	}()

	select {
	case <-dialer.entered:
	case <-time.After(waitFor):
		t.Fatal("dial not started")
	}
	assert.Equal(t, StateConnecting, h.client.State())

	h.client.Disconnect()

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(waitFor):
		t.Fatal("dial not cancelled")
	}

	assert.Equal(t, StateClosed, h.client.State())
	assert.Equal(t, 0, h.clock.count())
	assert.Empty(t, h.notifier.all())
}

func TestClient_ConnectAfterDisconnect(t *testing.T) {
	first, second := newFakeConn(), newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: first}, dialResult{conn: second}))

	require.NoError(t, h.client.Connect())
	h.client.Disconnect()
	require.NoError(t, h.client.Connect())

	assert.Equal(t, StateOpen, h.client.State())
	assert.Equal(t, []bool{true, false, true}, h.store.connectedHistory())

	// events from the first session must not touch the second
	first.push(`{"type":"new_profile_discovered","data":{"id":"stale","name":"Old"}}`)
	second.push(`{"type":"new_profile_discovered","data":{"id":"fresh","name":"New"}}`)

	require.Eventually(t, func() bool {
		return h.store.profileCount() == 1
	}, waitFor, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	h.store.mu.Lock()
	assert.Equal(t, "fresh", h.store.profiles[0].ID)
	h.store.mu.Unlock()
	assert.Equal(t, StateOpen, h.client.State())
	assert.Equal(t, 0, h.clock.count())
}

func TestClient_ManualConnectSupersedesPendingReconnect(t *testing.T) {
	first, second := newFakeConn(), newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: first}, dialResult{conn: second}))
	require.NoError(t, h.client.Connect())

	first.remoteClose(4002, "")
	require.Eventually(t, func() bool {
		return h.clock.count() == 1
	}, waitFor, 5*time.Millisecond)

	require.NoError(t, h.client.Connect())
	assert.True(t, h.clock.last().stopped)

	h.clock.fireLast()
	assert.Equal(t, 2, h.dialer.dialCount())
	assert.Equal(t, StateOpen, h.client.State())
}

func TestClient_SendMessage(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	err := h.client.SendMessage(OutboundEvent{
		Type:    "approve_message",
		Payload: map[string]interface{}{"message_id": "msg-1"},
	})
	require.NoError(t, err)

	frames := conn.sentFrames()
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"type":"approve_message","message_id":"msg-1","timestamp":"2024-01-15T10:30:00.000Z"}`, string(frames[0]))
}

func TestClient_SendMessageWhileClosed(t *testing.T) {
	h := newHarness(t, newFakeDialer())

	err := h.client.SendMessage(OutboundEvent{Type: "ping"})
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestClient_SendMessageRequiresType(t *testing.T) {
	conn := newFakeConn()
	h := newHarness(t, newFakeDialer(dialResult{conn: conn}))
	require.NoError(t, h.client.Connect())

	require.Error(t, h.client.SendMessage(OutboundEvent{}))
	assert.Empty(t, conn.sentFrames())
}
