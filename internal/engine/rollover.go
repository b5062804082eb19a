package engine

import (
	"github.com/joshsymonds/duekeeper/internal/model"
	"github.com/joshsymonds/duekeeper/internal/schedule"
)

// rollover reconciles every obligation with the wall clock, in place.
// Monthly items lose a paid flag stamped for an earlier period;
// periodic items whose cycle fully elapsed advance to the next one.
// The pass is idempotent and safe to run redundantly. Reports whether
// anything changed.
func rollover(obligations []model.Obligation, today model.Date, period string, catchUp bool) bool {
	changed := false
	for i := range obligations {
		o := &obligations[i]

		if o.Frequency != model.FrequencyPeriodic || o.IntervalDays < 1 {
			// Monthly, or a record too malformed to cycle on days:
			// reset a paid flag left over from another period.
			if o.Paid && o.PaidCycleID != period {
				o.Paid = false
				o.PaidCycleID = ""
				changed = true
			}
			continue
		}

		if o.NextDueDate.IsZero() {
			if o.CycleAnchor.IsZero() {
				if o.Paid && o.PaidCycleID != period {
					o.Paid = false
					o.PaidCycleID = ""
					changed = true
				}
				continue
			}
			// Heal older records that stored only the anchor.
			o.NextDueDate = schedule.NextDueDate(o.CycleAnchor, o.IntervalDays)
			changed = true
		}

		// The cycle ends one interval after its due date. Advance one
		// step per pass unless catch-up is enabled.
		for {
			cycleEnd := o.NextDueDate.AddDays(o.IntervalDays)
			if today.Before(cycleEnd) {
				break
			}
			o.NextDueDate = cycleEnd
			o.Paid = false
			o.PaidCycleID = ""
			changed = true
			if !catchUp {
				break
			}
		}
	}
	return changed
}
