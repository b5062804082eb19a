// Package service defines the interfaces the engine consumes: the
// persistence layer, the wall-clock source, the timer scheduler, and
// the notification emitter.
package service

import (
	"context"
	"time"

	"github.com/joshsymonds/duekeeper/internal/model"
)

// Storage is the contract for the persistence layer: three logical
// stores, each read and written whole as a JSON-serializable document.
type Storage interface {
	GetObligations(ctx context.Context) ([]model.Obligation, error)
	SaveObligations(ctx context.Context, obligations []model.Obligation) error

	GetArchive(ctx context.Context) ([]model.ArchiveRecord, error)
	SaveArchive(ctx context.Context, records []model.ArchiveRecord) error

	GetSealState(ctx context.Context) (model.SealState, error)
	SaveSealState(ctx context.Context, state model.SealState) error

	Migrate(ctx context.Context) error
	Close() error
}

// Clock supplies the current wall-clock time. The engine never calls
// time.Now directly so tests can pin the calendar.
type Clock interface {
	Now() time.Time
}

// TimerHandle cancels a pending scheduled call. Stop reports whether
// the call was still pending.
type TimerHandle interface {
	Stop() bool
}

// Scheduler runs a function once after a delay. At most one countdown
// and one grace timer are live at a time; cancellation is cooperative.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) TimerHandle
}

// Notifier delivers a user-visible message for the given display
// duration. The delivery channel is the caller's concern.
type Notifier interface {
	Notify(message string, duration time.Duration)
}

// Eligibility is the result of a seal eligibility check: whether a seal
// may start, and the user-facing reason when it may not.
type Eligibility struct {
	Enabled bool
	Reason  string
}
