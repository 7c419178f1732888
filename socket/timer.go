package socket

import "time"

// Clock schedules reconnect attempts and stamps outbound frames.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// reconnectTimer is the single pending reconnect attempt a Client owns. The
// client compares the pointer on fire so a stopped timer that already started
// running becomes a no-op.
type reconnectTimer struct {
	timer Timer
	delay time.Duration
}

func (t *reconnectTimer) stop() {
	if t != nil && t.timer != nil {
		t.timer.Stop()
	}
}
