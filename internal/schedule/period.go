package schedule

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joshsymonds/duekeeper/internal/model"
)

// NoEndDate encodes "open-ended" for days-remaining math; it sorts
// after every real value.
const NoEndDate = math.MaxInt

// Period returns the calendar month string (YYYY-MM) that scopes
// monthly cycles and seal validity.
func Period(now time.Time) string {
	return now.Format("2006-01")
}

// DaysRemaining counts the days from today until the end date. Returns
// NoEndDate when the obligation is open-ended; negative values mean the
// fixed term already lapsed.
func DaysRemaining(end model.Date, today model.Date) int {
	if end.IsZero() {
		return NoEndDate
	}
	return today.DaysUntil(end)
}

// Urgency grades how soon an obligation's fixed term ends.
type Urgency string

const (
	// UrgencyNormal marks open-ended, completed, savings, or soon-ending terms.
	UrgencyNormal Urgency = "normal"
	// UrgencyWarning marks terms ending within roughly a quarter.
	UrgencyWarning Urgency = "warning"
	// UrgencyCritical marks long-running remaining terms.
	UrgencyCritical Urgency = "critical"
)

// EndDateUrgency classifies the remaining term. Savings obligations are
// always neutral regardless of sign; otherwise a term inside 30 days is
// normal, inside 90 days a warning, and anything longer critical.
func EndDateUrgency(end model.Date, today model.Date, category model.Category) Urgency {
	days := DaysRemaining(end, today)
	if days == NoEndDate || days < 0 {
		return UrgencyNormal
	}
	if category == model.CategorySavings {
		return UrgencyNormal
	}
	switch {
	case days <= 30:
		return UrgencyNormal
	case days <= 90:
		return UrgencyWarning
	default:
		return UrgencyCritical
	}
}

// FormatRemaining renders a day count as "1y 2m 5d". Open-ended terms
// render as "Ongoing" and lapsed ones as "Completed".
func FormatRemaining(days int) string {
	if days == NoEndDate {
		return "Ongoing"
	}
	if days < 0 {
		return "Completed"
	}
	years := days / 365
	months := (days % 365) / 30
	rest := days % 30

	var b strings.Builder
	if years > 0 {
		fmt.Fprintf(&b, "%dy ", years)
	}
	if months > 0 {
		fmt.Fprintf(&b, "%dm ", months)
	}
	if rest > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%dd", rest)
	}
	return strings.TrimSpace(b.String())
}
