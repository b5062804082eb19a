package engine

import (
	"time"

	"github.com/joshsymonds/duekeeper/internal/service"
)

// systemClock reads the real wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// systemScheduler runs callbacks on real timers.
type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, fn func()) service.TimerHandle {
	return time.AfterFunc(d, fn)
}

// noopNotifier drops notifications when no emitter is wired up.
type noopNotifier struct{}

func (noopNotifier) Notify(string, time.Duration) {}
