// Package model defines the core data types for tracked financial
// obligations and the seal workflow.
package model

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category classifies where an obligation's money goes.
type Category string

const (
	// CategoryDebt covers loan installments and recurring expenses.
	CategoryDebt Category = "debt"
	// CategorySavings covers deposits toward savings goals; these are
	// always reported with neutral urgency.
	CategorySavings Category = "savings"
)

// Kind distinguishes amortizing installments from flat recurring expenses.
type Kind string

const (
	// KindInstallment is an amortizing payment with principal/interest metadata.
	KindInstallment Kind = "installment"
	// KindFixedExpense is a flat recurring charge (rent, insurance, SIP).
	KindFixedExpense Kind = "fixed-expense"
)

// Frequency selects which cycle mode an obligation uses. Exactly one
// mode is active at a time: monthly obligations carry DueDay, periodic
// obligations carry IntervalDays/CycleAnchor/NextDueDate.
type Frequency string

const (
	// FrequencyMonthly cycles with the calendar month, due on a fixed day.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyPeriodic cycles every IntervalDays from a fixed anchor date.
	FrequencyPeriodic Frequency = "periodic"
)

// Obligation is one recurring or fixed payment commitment.
//
// The paid flag is meaningful only while PaidCycleID matches the active
// cycle: the current YYYY-MM period for monthly items, the current
// NextDueDate for periodic items. A stale PaidCycleID means "not paid
// this cycle" regardless of the flag.
type Obligation struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category Category        `json:"category"`
	Kind     Kind            `json:"kind"`

	Frequency    Frequency `json:"frequency"`
	DueDay       int       `json:"dueDay,omitempty"`
	IntervalDays int       `json:"intervalDays,omitempty"`
	CycleAnchor  Date      `json:"cycleAnchor,omitempty"`
	NextDueDate  Date      `json:"nextDueDate,omitempty"`

	// EndDate, when set, bounds the obligation's validity window.
	// Zero means open-ended.
	EndDate Date `json:"endDate,omitempty"`

	Paid        bool   `json:"paid"`
	PaidCycleID string `json:"paidCycleId,omitempty"`

	// Installment metadata, relevant only to KindInstallment.
	PrincipalTotal *decimal.Decimal `json:"principalTotal,omitempty"`
	PrincipalPaid  *decimal.Decimal `json:"principalPaid,omitempty"`
	InterestPaid   *decimal.Decimal `json:"interestPaid,omitempty"`
}

// obligationAlias breaks the UnmarshalJSON recursion.
type obligationAlias Obligation

// UnmarshalJSON fills defaults for records written before the frequency
// fields existed: a missing frequency means monthly, and a monthly item
// without a due day falls back to the 1st.
func (o *Obligation) UnmarshalJSON(data []byte) error {
	var alias obligationAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	if alias.Frequency == "" {
		alias.Frequency = FrequencyMonthly
	}
	if alias.Frequency == FrequencyMonthly && alias.DueDay == 0 {
		alias.DueDay = 1
	}
	if alias.Category == "" {
		alias.Category = CategoryDebt
	}
	*o = Obligation(alias)
	return nil
}

// AnchorKey returns the frequency anchor portion of the identity tuple:
// the due day for monthly items, the cycle anchor date for periodic ones.
func (o *Obligation) AnchorKey() string {
	if o.Frequency == FrequencyPeriodic && !o.CycleAnchor.IsZero() {
		return o.CycleAnchor.String()
	}
	return strconv.Itoa(o.DueDay)
}

// Identity returns the (name, amount, anchor) tuple that the seal
// snapshot and import merging key on. The surrogate ID is authoritative
// everywhere else.
func (o *Obligation) Identity() SealItem {
	return SealItem{
		Name:      o.Name,
		Amount:    o.Amount,
		AnchorKey: o.AnchorKey(),
	}
}

// Lapsed reports whether the obligation's fixed term ended before today.
func (o *Obligation) Lapsed(today Date) bool {
	return !o.EndDate.IsZero() && o.EndDate.Before(today)
}

// RemainingPrincipal returns max(total - paid, 0) for installments, and
// zero when the metadata is absent.
func (o *Obligation) RemainingPrincipal() decimal.Decimal {
	if o.Kind != KindInstallment || o.PrincipalTotal == nil {
		return decimal.Zero
	}
	paid := decimal.Zero
	if o.PrincipalPaid != nil {
		paid = *o.PrincipalPaid
	}
	remaining := o.PrincipalTotal.Sub(paid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
