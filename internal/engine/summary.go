package engine

import (
	"context"

	"github.com/joshsymonds/duekeeper/internal/model"
	"github.com/shopspring/decimal"
)

// Summary aggregates the month's outstanding commitments.
type Summary struct {
	// TotalObligations counts the active set, paid or not.
	TotalObligations int
	// OutstandingTotal sums amounts still unpaid this cycle,
	// excluding completed fixed terms.
	OutstandingTotal decimal.Decimal
	// DebtOutstanding and SavingsOutstanding split OutstandingTotal
	// by category.
	DebtOutstanding    decimal.Decimal
	SavingsOutstanding decimal.Decimal
	// RemainingPrincipal sums max(principal total - principal paid, 0)
	// across debt installments.
	RemainingPrincipal decimal.Decimal
}

// Summary settles state and aggregates the active set.
func (e *Engine) Summary(ctx context.Context) (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.settle(ctx); err != nil {
		return Summary{}, err
	}
	obligations, err := e.storage.GetObligations(ctx)
	if err != nil {
		return Summary{}, err
	}
	return buildSummary(obligations, e.today(), e.period()), nil
}

func buildSummary(obligations []model.Obligation, today model.Date, period string) Summary {
	s := Summary{
		TotalObligations:   len(obligations),
		OutstandingTotal:   decimal.Zero,
		DebtOutstanding:    decimal.Zero,
		SavingsOutstanding: decimal.Zero,
		RemainingPrincipal: decimal.Zero,
	}

	for i := range obligations {
		o := &obligations[i]

		if o.Category != model.CategorySavings {
			s.RemainingPrincipal = s.RemainingPrincipal.Add(o.RemainingPrincipal())
		}

		if PaidInCycle(*o, period) || o.Lapsed(today) {
			continue
		}

		s.OutstandingTotal = s.OutstandingTotal.Add(o.Amount)
		if o.Category == model.CategorySavings {
			s.SavingsOutstanding = s.SavingsOutstanding.Add(o.Amount)
		} else {
			s.DebtOutstanding = s.DebtOutstanding.Add(o.Amount)
		}
	}
	return s
}
