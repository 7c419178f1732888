package notify

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/kleeedolinux/datesync/debug"
	"github.com/kleeedolinux/datesync/model"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
)

const DefaultToastTTL = 5 * time.Second

// Recorder keeps the persistent notification list.
type Recorder interface {
	AddNotification(n model.Notification)
}

// Center records every notification and keeps it on screen as a toast until
// its TTL runs out or it is dismissed.
type Center struct {
	records Recorder
	toasts  *ttlcache.Cache[string, model.Notification]
	now     func() time.Time
	logger  zerolog.Logger
	running atomic.Bool
}

type Option func(*Center)

func WithToastTTL(ttl time.Duration) Option {
	return func(c *Center) {
		c.toasts = newToastCache(ttl)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Center) {
		c.logger = logger
	}
}

func withNow(now func() time.Time) Option {
	return func(c *Center) {
		c.now = now
	}
}

func NewCenter(records Recorder, opts ...Option) *Center {
	c := &Center{
		records: records,
		toasts:  newToastCache(DefaultToastTTL),
		now:     time.Now,
		logger:  debug.Component("notify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newToastCache(ttl time.Duration) *ttlcache.Cache[string, model.Notification] {
	return ttlcache.New[string, model.Notification](
		ttlcache.WithTTL[string, model.Notification](ttl),
		ttlcache.WithDisableTouchOnHit[string, model.Notification](),
	)
}

func (c *Center) Notify(severity model.Severity, title, message string) {
	c.NotifyWithAction(severity, title, message, "")
}

func (c *Center) NotifyWithAction(severity model.Severity, title, message, actionURL string) model.Notification {
	n := model.Notification{
		ID:        uuid.NewString(),
		Type:      severity,
		Title:     title,
		Message:   message,
		Timestamp: c.now().UTC().Format(model.TimestampLayout),
		ActionURL: actionURL,
	}

	if c.records != nil {
		c.records.AddNotification(n)
	}
	c.toasts.Set(n.ID, n, ttlcache.DefaultTTL)

	c.log(severity).Str("title", title).Msg(message)
	return n
}

func (c *Center) log(severity model.Severity) *zerolog.Event {
	switch severity {
	case model.SeverityError:
		return c.logger.Error()
	case model.SeverityWarning:
		return c.logger.Warn()
	default:
		return c.logger.Info().Str("severity", string(severity))
	}
}

// Active returns the toasts that have not expired, newest first.
func (c *Center) Active() []model.Notification {
	items := c.toasts.Items()

	live := make([]*ttlcache.Item[string, model.Notification], 0, len(items))
	for _, item := range items {
		if !item.IsExpired() {
			live = append(live, item)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].ExpiresAt().After(live[j].ExpiresAt())
	})

	active := make([]model.Notification, len(live))
	for i, item := range live {
		active[i] = item.Value()
	}
	return active
}

func (c *Center) Dismiss(id string) {
	c.toasts.Delete(id)
}

// Start evicts expired toasts in the background until Stop is called.
func (c *Center) Start() {
	if c.running.CompareAndSwap(false, true) {
		go c.toasts.Start()
	}
}

func (c *Center) Stop() {
	if c.running.CompareAndSwap(true, false) {
		c.toasts.Stop()
	}
}
