package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/joshsymonds/duekeeper/internal/cli"
	"github.com/joshsymonds/duekeeper/internal/model"
	"github.com/joshsymonds/duekeeper/internal/schedule"
)

// obligationFlags collects the shared add/edit flag set.
type obligationFlags struct {
	name           string
	amount         string
	category       string
	kind           string
	frequency      string
	dueDay         int
	everyDays      int
	everyMonths    int
	anchor         string
	endDate        string
	principalTotal string
	principalPaid  string
	interestPaid   string
}

func (f *obligationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "obligation name (e.g. \"Home Loan\", \"Rent\")")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount due per cycle")
	cmd.Flags().StringVar(&f.category, "category", "debt", "category: debt or savings")
	cmd.Flags().StringVar(&f.kind, "kind", "fixed-expense", "kind: installment or fixed-expense")
	cmd.Flags().StringVar(&f.frequency, "frequency", "monthly", "monthly, quarterly, half-yearly, yearly, or custom")
	cmd.Flags().IntVar(&f.dueDay, "due-day", 1, "day of month a monthly obligation is due")
	cmd.Flags().IntVar(&f.everyDays, "every", 0, "custom frequency: interval in days")
	cmd.Flags().IntVar(&f.everyMonths, "months", 0, "custom frequency: interval in months (~30.44 days each)")
	cmd.Flags().StringVar(&f.anchor, "anchor", "", "cycle anchor date (YYYY-MM-DD) for non-monthly frequencies")
	cmd.Flags().StringVar(&f.endDate, "end", "", "end date (YYYY-MM-DD); omit for open-ended")
	cmd.Flags().StringVar(&f.principalTotal, "principal-total", "", "installment: total principal")
	cmd.Flags().StringVar(&f.principalPaid, "principal-paid", "", "installment: principal paid so far")
	cmd.Flags().StringVar(&f.interestPaid, "interest-paid", "", "installment: interest paid so far")
}

// build turns the flag set into an obligation, resolving the frequency
// spec the same way the engine will validate it.
func (f *obligationFlags) build() (model.Obligation, error) {
	o := model.Obligation{
		Name:     f.name,
		Category: model.Category(f.category),
		Kind:     model.Kind(f.kind),
	}

	amount, err := decimal.NewFromString(f.amount)
	if err != nil {
		return model.Obligation{}, fmt.Errorf("invalid amount %q: %w", f.amount, err)
	}
	o.Amount = amount

	spec, err := f.frequencySpec()
	if err != nil {
		return model.Obligation{}, err
	}
	intervalDays, err := schedule.ResolveIntervalDays(spec)
	if err != nil {
		return model.Obligation{}, err
	}

	if spec.Monthly {
		o.Frequency = model.FrequencyMonthly
		o.DueDay = f.dueDay
	} else {
		o.Frequency = model.FrequencyPeriodic
		o.IntervalDays = intervalDays
		if f.anchor == "" {
			return model.Obligation{}, fmt.Errorf("non-monthly obligations need --anchor")
		}
		anchor, err := model.ParseDate(f.anchor)
		if err != nil {
			return model.Obligation{}, err
		}
		o.CycleAnchor = anchor
	}

	if f.endDate != "" {
		end, err := model.ParseDate(f.endDate)
		if err != nil {
			return model.Obligation{}, err
		}
		o.EndDate = end
	}

	for _, field := range []struct {
		raw string
		dst **decimal.Decimal
	}{
		{f.principalTotal, &o.PrincipalTotal},
		{f.principalPaid, &o.PrincipalPaid},
		{f.interestPaid, &o.InterestPaid},
	} {
		if field.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(field.raw)
		if err != nil {
			return model.Obligation{}, fmt.Errorf("invalid decimal %q: %w", field.raw, err)
		}
		*field.dst = &v
	}

	return o, nil
}

func (f *obligationFlags) frequencySpec() (schedule.Spec, error) {
	switch f.frequency {
	case "monthly":
		return schedule.Spec{Monthly: true}, nil
	case "quarterly":
		return schedule.Spec{Preset: schedule.PresetQuarterly}, nil
	case "half-yearly":
		return schedule.Spec{Preset: schedule.PresetHalfYearly}, nil
	case "yearly":
		return schedule.Spec{Preset: schedule.PresetYearly}, nil
	case "custom":
		return schedule.Spec{Days: f.everyDays, Months: f.everyMonths}, nil
	default:
		return schedule.Spec{}, fmt.Errorf("unknown frequency %q", f.frequency)
	}
}

func addCmd() *cobra.Command {
	var flags obligationFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new obligation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := flags.build()
			if err != nil {
				return err
			}

			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			stored, err := eng.AddObligation(cmd.Context(), o)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %q (%s)", stored.Name, stored.ID.String()[:8])))
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func editCmd() *cobra.Command {
	var flags obligationFlags

	cmd := &cobra.Command{
		Use:   "edit <name-or-id>",
		Short: "Edit an obligation (payment state for the cycle is preserved)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := flags.build()
			if err != nil {
				return err
			}

			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			views, err := eng.Obligations(cmd.Context())
			if err != nil {
				return err
			}
			target, err := findTarget(views, args[0])
			if err != nil {
				return err
			}

			stored, err := eng.UpdateObligation(cmd.Context(), target.ID, updated)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %q", stored.Name)))
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name-or-id>",
		Short: "Delete an obligation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			views, err := eng.Obligations(cmd.Context())
			if err != nil {
				return err
			}
			target, err := findTarget(views, args[0])
			if err != nil {
				return err
			}

			if err := eng.DeleteObligation(cmd.Context(), target.ID); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %q", target.Name)))
			return nil
		},
	}
}
