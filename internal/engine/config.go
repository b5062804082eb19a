package engine

import "time"

// Config holds tuning knobs for the obligation engine.
type Config struct {
	// CountdownDelay is how long a confirmed seal stays abortable
	// before it commits.
	CountdownDelay time.Duration
	// GraceDelay is the undo window after a seal commits.
	GraceDelay time.Duration
	// NotifyDuration is the display duration passed to the notifier.
	NotifyDuration time.Duration
	// CatchUp makes the reconciler advance a periodic obligation
	// through every missed cycle in one pass instead of one step
	// per tick.
	CatchUp bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CountdownDelay: 3 * time.Second,
		GraceDelay:     5 * time.Second,
		NotifyDuration: 3 * time.Second,
		CatchUp:        false,
	}
}
