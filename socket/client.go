package socket

import (
	"context"
	"sync"
	"time"

	"github.com/kleeedolinux/datesync/debug"
	"github.com/kleeedolinux/datesync/socket/transport"

	"github.com/rs/zerolog"
)

const disconnectReason = "User disconnected"

// Client keeps one realtime session to the backend alive, reconciles inbound
// events into a Store and reconnects with capped exponential backoff when the
// session ends abnormally.
type Client struct {
	mu         sync.Mutex
	id         string
	dialer     transport.Dialer
	conn       transport.Conn
	dispatcher *Dispatcher
	store      Store
	tokens     TokenSource

	hmu      sync.RWMutex
	handlers map[string][]func(Message)

	state           State
	retryCount      int
	lastCloseCode   int
	lastCloseReason string
	intentional     bool
	generation      uint64
	pending         *reconnectTimer
	cancelDial      context.CancelFunc

	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration
	reconnectAttempts int

	notifier Notifier
	clock    Clock
	metrics  *Metrics
	logger   zerolog.Logger
}

type ClientOption func(*Client)

func WithReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.reconnectDelay = d
	}
}

func WithMaxReconnectDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxReconnectDelay = d
	}
}

// WithReconnectAttempts bounds automatic reconnects. Zero disables them and a
// negative value retries forever.
func WithReconnectAttempts(attempts int) ClientOption {
	return func(c *Client) {
		c.reconnectAttempts = attempts
	}
}

func WithTokenSource(tokens TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = tokens
	}
}

func WithClock(clock Clock) ClientOption {
	return func(c *Client) {
		c.clock = clock
	}
}

func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(dialer transport.Dialer, store Store, notifier Notifier, opts ...ClientOption) *Client {
	client := &Client{
		id:                generateID(),
		dialer:            dialer,
		store:             store,
		notifier:          notifier,
		handlers:          make(map[string][]func(Message)),
		state:             StateIdle,
		reconnectDelay:    1 * time.Second,
		maxReconnectDelay: 10 * time.Second,
		reconnectAttempts: 5,
		clock:             systemClock{},
		logger:            debug.Component("realtime"),
	}

	for _, opt := range opts {
		opt(client)
	}

	client.logger = client.logger.With().Str("client", client.id).Logger()
	client.dispatcher = NewDispatcher(store, notifier, client.logger)

	return client
}

func (c *Client) ID() string {
	return c.id
}

// Connect opens a session unless one is already open or being dialled. A
// pending automatic reconnect is superseded. The dial error, if any, is
// returned and also drives the reconnect policy.
func (c *Client) Connect() error {
	c.mu.Lock()
	c.intentional = false
	c.cancelPendingLocked()
	c.mu.Unlock()

	return c.connect()
}

func (c *Client) connect() error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateOpen {
		c.mu.Unlock()
		return nil
	}

	c.generation++
	gen := c.generation
	c.state = StateConnecting
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	c.mu.Unlock()

	c.logger.Info().Msg("connecting")
	conn, err := c.dialer.Dial(ctx)
	cancel()
	if err != nil {
		c.logger.Error().Err(err).Msg("connection failed")
		c.onSocketError(gen)
		c.onClose(gen, transport.CloseAbnormalClosure, err.Error())
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		conn.Close(transport.CloseNormalClosure, disconnectReason)
		return ErrConnectionClosed
	}
	c.conn = conn
	c.cancelDial = nil
	c.state = StateOpen
	c.retryCount = 0
	c.store.SetConnectionStatus(true)
	c.mu.Unlock()

	c.metrics.setConnected(true)
	c.logger.Info().Msg("connected")

	c.authenticate(conn)

	go c.receiveLoop(gen, conn)

	return nil
}

func (c *Client) authenticate(conn transport.Conn) {
	if c.tokens == nil {
		return
	}
	token := c.tokens.Token()
	if token == "" {
		return
	}

	data, err := encodeAuth(token)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode auth frame")
		return
	}
	if err := conn.Send(data); err != nil {
		c.logger.Warn().Err(err).Msg("failed to send auth frame")
	}
}

func (c *Client) receiveLoop(gen uint64, conn transport.Conn) {
	for {
		data, err := conn.Receive()
		if err != nil {
			if !transport.IsCloseFrame(err) {
				c.logger.Error().Err(err).Msg("connection error")
				c.onSocketError(gen)
			}
			code, reason := transport.CloseStatus(err)
			c.onClose(gen, code, reason)
			conn.Close(transport.CloseNormalClosure, "")
			return
		}

		if !c.isCurrent(gen) {
			return
		}

		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	msg, err := ParseMessage(data)
	if err != nil {
		c.metrics.frameMalformed()
		c.logger.Warn().Err(err).Msg("failed to parse message")
		return
	}

	ev, err := DecodeEvent(msg)
	if err != nil {
		c.metrics.frameMalformed()
		c.logger.Warn().Err(err).Msg("failed to decode message")
		return
	}

	label := msg.Type
	if _, unknown := ev.(*Unknown); unknown {
		label = "unknown"
	}
	c.metrics.frameReceived(label)
	c.logger.Debug().Str("type", msg.Type).Str("timestamp", msg.Timestamp).Msg("message received")

	c.dispatcher.Dispatch(ev)
	c.triggerEvent(msg)
}

func (c *Client) onSocketError(gen uint64) {
	if !c.isCurrent(gen) {
		return
	}
	if c.notifier != nil {
		c.notifier.Notify("error", "Connection Error", "WebSocket connection failed. Real-time updates may not work.")
	}
}

func (c *Client) onClose(gen uint64, code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state == StateClosed {
		return
	}

	c.state = StateClosed
	c.conn = nil
	c.cancelDial = nil
	c.lastCloseCode = code
	c.lastCloseReason = reason
	c.store.SetConnectionStatus(false)
	c.metrics.setConnected(false)

	c.logger.Info().Int("code", code).Str("reason", reason).Msg("disconnected")

	if code == transport.CloseNormalClosure || c.intentional {
		return
	}

	if c.reconnectAttempts >= 0 && c.retryCount >= c.reconnectAttempts {
		c.logger.Warn().Int("attempts", c.retryCount).Msg("reconnect attempts exhausted")
		c.store.SetSystemStatus(SystemStatusDisconnected)
		return
	}

	delay := backoffDelay(c.reconnectDelay, c.maxReconnectDelay, c.retryCount)
	c.scheduleLocked(delay)
}

func (c *Client) scheduleLocked(delay time.Duration) {
	c.cancelPendingLocked()

	p := &reconnectTimer{delay: delay}
	p.timer = c.clock.AfterFunc(delay, func() {
		c.fireReconnect(p)
	})
	c.pending = p

	c.logger.Debug().Dur("delay", delay).Int("retry", c.retryCount).Msg("reconnect scheduled")
}

func (c *Client) fireReconnect(p *reconnectTimer) {
	c.mu.Lock()
	if c.pending != p || c.intentional {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.retryCount++
	attempt := c.retryCount
	c.mu.Unlock()

	c.metrics.reconnectAttempt()
	c.logger.Info().Int("attempt", attempt).Msg("reconnecting")

	c.connect()
}

func (c *Client) cancelPendingLocked() {
	if c.pending != nil {
		c.pending.stop()
		c.pending = nil
	}
}

// Disconnect closes the session with a normal closure, cancels any pending
// reconnect and suppresses automatic reconnects until the next Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	c.cancelPendingLocked()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}

	conn := c.conn
	c.conn = nil
	live := c.state == StateConnecting || c.state == StateOpen
	c.generation++
	if c.state != StateIdle {
		c.state = StateClosed
	}
	if live {
		c.lastCloseCode = transport.CloseNormalClosure
		c.lastCloseReason = disconnectReason
		c.store.SetConnectionStatus(false)
	}
	c.mu.Unlock()

	if live {
		c.metrics.setConnected(false)
		c.logger.Info().Msg("disconnected by user")
	}

	if conn != nil {
		if err := conn.Close(transport.CloseNormalClosure, disconnectReason); err != nil {
			c.logger.Debug().Err(err).Msg("error closing connection")
		}
	}
}

// SendMessage stamps ev with the current time and writes it if the session is
// open. Otherwise the frame is dropped and ErrConnectionClosed is returned;
// nothing is queued.
func (c *Client) SendMessage(ev OutboundEvent) error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		c.metrics.sendDropped()
		c.logger.Warn().Str("type", ev.Type).Msg("not connected, cannot send message")
		return ErrConnectionClosed
	}

	data, err := encodeOutbound(ev, c.clock.Now())
	if err != nil {
		c.logger.Warn().Err(err).Str("type", ev.Type).Msg("failed to encode message")
		return err
	}

	if err := conn.Send(data); err != nil {
		c.logger.Warn().Err(err).Str("type", ev.Type).Msg("failed to send message")
		return err
	}

	c.metrics.frameSent()
	return nil
}

// On registers handler for inbound messages of eventType. Handlers run on the
// receive goroutine after the store has been updated, in arrival order.
func (c *Client) On(eventType string, handler func(Message)) {
	c.hmu.Lock()
	defer c.hmu.Unlock()

	c.handlers[eventType] = append(c.handlers[eventType], handler)
}

func (c *Client) Off(eventType string) {
	c.hmu.Lock()
	defer c.hmu.Unlock()

	delete(c.handlers, eventType)
}

func (c *Client) triggerEvent(msg Message) {
	c.hmu.RLock()
	handlers := c.handlers[msg.Type]
	c.hmu.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
}

func (c *Client) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return gen == c.generation
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == StateOpen
}

func (c *Client) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.retryCount
}

func (c *Client) LastClose() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastCloseCode, c.lastCloseReason
}

// ReconnectPending reports whether an automatic reconnect is scheduled and
// after what delay.
func (c *Client) ReconnectPending() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return 0, false
	}
	return c.pending.delay, true
}
