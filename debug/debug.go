package debug

import (
	"os"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	enabled atomic.Bool

	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger().Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	debugEnv, exists := os.LookupEnv("DATESYNC_DEBUG")
	if exists {
		if val, err := strconv.ParseBool(debugEnv); err == nil && val {
			Enable()
		}
	}
}

// Component returns a child of Logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func Printf(format string, v ...interface{}) {
	if enabled.Load() {
		Logger.Debug().Msgf(format, v...)
	}
}

func Enabled() bool {
	return enabled.Load()
}

func Enable() {
	enabled.Store(true)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func Disable() {
	enabled.Store(false)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
