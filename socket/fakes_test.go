package socket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/kleeedolinux/datesync/model"
	"github.com/kleeedolinux/datesync/socket/transport"
)

var errConnClosed = errors.New("use of closed network connection")

type fakeConn struct {
	incoming chan []byte
	errs     chan error
	done     chan struct{}

	mu          sync.Mutex
	sent        [][]byte
	closed      bool
	closeCode   int
	closeReason string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 16),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errConnClosed
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Receive() ([]byte, error) {
	select {
	case data := <-c.incoming:
		return data, nil
	case err := <-c.errs:
		return nil, err
	case <-c.done:
		return nil, errConnClosed
	}
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.done)
	return nil
}

func (c *fakeConn) push(frame string) {
	c.incoming <- []byte(frame)
}

func (c *fakeConn) remoteClose(code int, reason string) {
	c.errs <- &transport.CloseError{Code: code, Text: reason}
}

func (c *fakeConn) fail(err error) {
	c.errs <- err
}

func (c *fakeConn) sentFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

func (c *fakeConn) closeStatus() (bool, int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.closeCode, c.closeReason
}

// dialResult is either a connection or an error.
type dialResult struct {
	conn *fakeConn
	err  error
}

type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
	dials   int
	block   bool
	entered chan struct{}
}

func newFakeDialer(results ...dialResult) *fakeDialer {
	return &fakeDialer{results: results, entered: make(chan struct{}, 16)}
}

func (d *fakeDialer) queue(results ...dialResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, results...)
}

func (d *fakeDialer) Dial(ctx context.Context) (transport.Conn, error) {
	d.mu.Lock()
	d.dials++
	block := d.block
	var res dialResult
	if len(d.results) > 0 {
		res = d.results[0]
		d.results = d.results[1:]
	} else {
		res = dialResult{err: errors.New("connection refused")}
	}
	d.mu.Unlock()

	select {
	case d.entered <- struct{}{}:
	default:
	}
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if res.err != nil {
		return nil, res.err
	}
	return res.conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]time.Duration, len(c.timers))
	for i, t := range c.timers {
		out[i] = t.delay
	}
	return out
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

// fireLast runs the newest timer's callback on the calling goroutine, as if
// the delay had elapsed.
func (c *fakeClock) fireLast() {
	t := c.last()
	if t != nil {
		t.fn()
	}
}

type fakeStore struct {
	mu            sync.Mutex
	profiles      []model.Profile
	updates       map[string]json.RawMessage
	messages      []model.ConversationMessage
	messageConvs  []string
	opportunities []model.Opportunity
	pending       []model.PendingMessage
	workflows     map[model.Workflow]bool
	metrics       []model.DashboardMetrics
	connected     []bool
	statuses      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		updates:   make(map[string]json.RawMessage),
		workflows: make(map[model.Workflow]bool),
	}
}

func (s *fakeStore) AddProfile(profile model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append(s.profiles, profile)
}

func (s *fakeStore) UpdateConversation(id string, patch json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[id] = patch
}

func (s *fakeStore) AddMessage(conversationID string, message model.ConversationMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageConvs = append(s.messageConvs, conversationID)
	s.messages = append(s.messages, message)
}

func (s *fakeStore) AddOpportunity(opportunity model.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunities = append(s.opportunities, opportunity)
}

func (s *fakeStore) AddPendingMessage(message model.PendingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, message)
}

func (s *fakeStore) SetWorkflowEnabled(workflow model.Workflow, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[workflow] = enabled
}

func (s *fakeStore) UpdateMetrics(metrics model.DashboardMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, metrics)
}

func (s *fakeStore) SetConnectionStatus(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = append(s.connected, connected)
}

func (s *fakeStore) SetSystemStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *fakeStore) connectedHistory() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.connected...)
}

func (s *fakeStore) statusHistory() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses...)
}

// messageTargets returns the conversation id of every AddMessage call, in order.
func (s *fakeStore) messageTargets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messageConvs...)
}

func (s *fakeStore) profileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// mutations counts every domain mutation, ignoring connection and system status.
func (s *fakeStore) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles) + len(s.updates) + len(s.messages) + len(s.opportunities) +
		len(s.pending) + len(s.workflows) + len(s.metrics)
}

type notification struct {
	severity model.Severity
	title    string
	message  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	list []notification
}

func (n *fakeNotifier) Notify(severity model.Severity, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, notification{severity, title, message})
}

func (n *fakeNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.list...)
}

func (n *fakeNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, len(n.list))
	for i, x := range n.list {
		out[i] = x.title
	}
	return out
}

type staticToken string

func (t staticToken) Token() string { return string(t) }
