package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kleeedolinux/datesync/debug"
	"github.com/kleeedolinux/datesync/socket"
	"github.com/kleeedolinux/datesync/socket/transport"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultWebSocketURL         = "ws://localhost:8001"
	DefaultAPIBaseURL           = "http://localhost:8000"
	DefaultAPIPrefix            = "/api"
	DefaultStatusAddr           = "localhost:8090"
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 1 * time.Second
	DefaultMaxReconnectDelay    = 10 * time.Second
	DefaultRequestTimeout       = 30 * time.Second
	DefaultNotificationTTL      = 5 * time.Second
)

// use a single instance of Validate, it caches struct info
var validate = validator.New()

type Options struct {
	WebSocketURL string `validate:"required,url,startswith=ws"`
	APIBaseURL   string `validate:"required,url,startswith=http"`
	APIPrefix    string `validate:"omitempty,startswith=/"`
	TokenFile    string
	StatusAddr   string `validate:"required"`

	// MaxReconnectAttempts of zero disables reconnects; -1 retries forever.
	MaxReconnectAttempts int           `validate:"min=-1"`
	ReconnectDelay       time.Duration `validate:"gt=0"`
	MaxReconnectDelay    time.Duration `validate:"gtefield=ReconnectDelay"`
	RequestTimeout       time.Duration `validate:"gt=0"`
	NotificationTTL      time.Duration `validate:"gt=0"`

	Debug bool
}

// FromEnv reads Options from the environment, falling back to the defaults
// for anything unset, then applies CheckDefaults.
func FromEnv() (*Options, error) {
	o := &Options{
		WebSocketURL:         envString("VITE_WS_URL", DefaultWebSocketURL),
		APIBaseURL:           envString("VITE_API_BASE_URL", DefaultAPIBaseURL),
		APIPrefix:            envString("DATESYNC_API_PREFIX", DefaultAPIPrefix),
		TokenFile:            os.Getenv("DATESYNC_TOKEN_FILE"),
		StatusAddr:           envString("DATESYNC_STATUS_ADDR", DefaultStatusAddr),
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		ReconnectDelay:       DefaultReconnectDelay,
		MaxReconnectDelay:    DefaultMaxReconnectDelay,
		RequestTimeout:       DefaultRequestTimeout,
		NotificationTTL:      DefaultNotificationTTL,
		Debug:                debug.Enabled(),
	}

	var err error
	if o.MaxReconnectAttempts, err = envInt("DATESYNC_MAX_RECONNECT_ATTEMPTS", o.MaxReconnectAttempts); err != nil {
		return nil, err
	}
	if o.RequestTimeout, err = envDuration("DATESYNC_REQUEST_TIMEOUT", o.RequestTimeout); err != nil {
		return nil, err
	}
	if o.NotificationTTL, err = envDuration("DATESYNC_NOTIFICATION_TTL", o.NotificationTTL); err != nil {
		return nil, err
	}

	o.CheckDefaults()
	return o, nil
}

func (o *Options) CheckDefaults() {
	logger := debug.Component("config")

	if o.WebSocketURL == "" {
		o.WebSocketURL = DefaultWebSocketURL
	}
	if o.APIBaseURL == "" {
		o.APIBaseURL = DefaultAPIBaseURL
	}
	o.APIBaseURL = strings.TrimRight(o.APIBaseURL, "/")
	o.APIPrefix = strings.TrimRight(o.APIPrefix, "/")
	if o.StatusAddr == "" {
		o.StatusAddr = DefaultStatusAddr
	}

	if o.MaxReconnectAttempts < -1 {
		logger.Warn().Int("value", o.MaxReconnectAttempts).Msg("MaxReconnectAttempts cannot be less than -1. Retrying forever.")
		o.MaxReconnectAttempts = -1
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.MaxReconnectDelay < o.ReconnectDelay {
		logger.Warn().Dur("value", o.MaxReconnectDelay).Msg("MaxReconnectDelay cannot be less than ReconnectDelay. Using ReconnectDelay.")
		o.MaxReconnectDelay = o.ReconnectDelay
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.NotificationTTL <= 0 {
		o.NotificationTTL = DefaultNotificationTTL
	}
}

func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// APIURL is the base URL REST paths are appended to.
func (o *Options) APIURL() string {
	return o.APIBaseURL + o.APIPrefix
}

func (o *Options) ClientOptions() []socket.ClientOption {
	return []socket.ClientOption{
		socket.WithReconnectAttempts(o.MaxReconnectAttempts),
		socket.WithReconnectDelay(o.ReconnectDelay),
		socket.WithMaxReconnectDelay(o.MaxReconnectDelay),
	}
}

func (o *Options) DialerOptions() []transport.WebSocketOption {
	return []transport.WebSocketOption{
		transport.WithHandshakeTimeout(o.RequestTimeout),
	}
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// envDuration accepts a Go duration string or a bare number of milliseconds.
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
