package engine

import (
	"github.com/joshsymonds/duekeeper/internal/model"
)

// cycleID returns the identifier of an obligation's active cycle: the
// YYYY-MM period for monthly items, the next due date for periodic
// ones. Periodic records missing their due date fall back to the
// monthly identifier rather than failing.
func cycleID(o *model.Obligation, period string) string {
	if o.Frequency == model.FrequencyPeriodic && !o.NextDueDate.IsZero() {
		return o.NextDueDate.String()
	}
	return period
}

// DueNow reports whether an obligation has a payment due. Monthly
// obligations are always due within their month; periodic ones become
// due once today reaches the next due date.
func DueNow(o model.Obligation, today model.Date) bool {
	if o.Frequency != model.FrequencyPeriodic || o.NextDueDate.IsZero() {
		return true
	}
	return !today.Before(o.NextDueDate)
}

// PaidInCycle reports whether the obligation is paid for its active
// cycle. A paid flag paired with a stale cycle identifier counts as
// unpaid.
func PaidInCycle(o model.Obligation, period string) bool {
	return o.Paid && o.PaidCycleID == cycleID(&o, period)
}
