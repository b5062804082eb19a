// Package schedule implements the frequency resolver and the calendar
// arithmetic behind obligation cycles.
package schedule

import (
	"errors"
	"fmt"
	"math"

	"github.com/joshsymonds/duekeeper/internal/model"
)

// Preset names a built-in periodic frequency.
type Preset string

const (
	// PresetQuarterly repeats every 90 days.
	PresetQuarterly Preset = "quarterly"
	// PresetHalfYearly repeats every 180 days.
	PresetHalfYearly Preset = "half-yearly"
	// PresetYearly repeats every 365 days.
	PresetYearly Preset = "yearly"
)

// avgMonthDays converts month counts to day counts for custom intervals.
const avgMonthDays = 30.44

// ErrIntervalTooShort rejects custom intervals that resolve below one day.
var ErrIntervalTooShort = errors.New("interval must be at least 1 day")

// presetDays maps presets to their cycle length.
var presetDays = map[Preset]int{
	PresetQuarterly:  90,
	PresetHalfYearly: 180,
	PresetYearly:     365,
}

// Spec describes a requested frequency. Monthly takes precedence; for
// periodic specs exactly one of Preset, Days, or Months should be set.
type Spec struct {
	Monthly bool
	Preset  Preset
	Days    int
	Months  int
}

// ResolveIntervalDays maps a frequency spec to a cycle length in days.
// Monthly specs resolve to 0: the calendar month is the cycle and no
// fixed day count applies. Custom intervals below one day are a
// validation error, never a crash.
func ResolveIntervalDays(spec Spec) (int, error) {
	if spec.Monthly {
		return 0, nil
	}
	if spec.Preset != "" {
		days, ok := presetDays[spec.Preset]
		if !ok {
			return 0, fmt.Errorf("unknown frequency preset %q", spec.Preset)
		}
		return days, nil
	}
	if spec.Months > 0 {
		days := int(math.Round(float64(spec.Months) * avgMonthDays))
		if days < 1 {
			return 0, ErrIntervalTooShort
		}
		return days, nil
	}
	if spec.Days < 1 {
		return 0, ErrIntervalTooShort
	}
	return spec.Days, nil
}

// Label renders the human-readable name for a spec.
func (s Spec) Label() string {
	switch {
	case s.Monthly:
		return "Monthly"
	case s.Preset == PresetQuarterly:
		return "Quarterly"
	case s.Preset == PresetHalfYearly:
		return "Half-yearly"
	case s.Preset == PresetYearly:
		return "Yearly"
	case s.Months > 0:
		if s.Months == 1 {
			return "Every month"
		}
		return fmt.Sprintf("Every %d months", s.Months)
	case s.Days == 1:
		return "Daily"
	default:
		return fmt.Sprintf("Every %d days", s.Days)
	}
}

// IntervalLabel names an obligation's cadence from its stored fields.
func IntervalLabel(o model.Obligation) string {
	if o.Frequency == model.FrequencyMonthly {
		return "Monthly"
	}
	switch o.IntervalDays {
	case 90:
		return "Quarterly"
	case 180:
		return "Half-yearly"
	case 365:
		return "Yearly"
	default:
		return fmt.Sprintf("Every %d days", o.IntervalDays)
	}
}

// NextDueDate advances a due date by one cycle, rolling across month
// and year boundaries.
func NextDueDate(from model.Date, intervalDays int) model.Date {
	return from.AddDays(intervalDays)
}
