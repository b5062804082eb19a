package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/duekeeper/internal/cli"
	"github.com/joshsymonds/duekeeper/internal/engine"
	"github.com/joshsymonds/duekeeper/internal/model"
	"github.com/joshsymonds/duekeeper/internal/schedule"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active obligations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			views, err := eng.Obligations(cmd.Context())
			if err != nil {
				return err
			}

			if len(views) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No active obligations. Add one with `duekeeper add`."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Active obligations"))
			for _, v := range views {
				fmt.Println(renderObligation(v))
			}
			return nil
		},
	}
}

func renderObligation(v engine.ObligationView) string {
	check := "[ ]"
	if v.PaidInCycle {
		check = cli.SuccessStyle.Render("[✓]")
	}

	name := cli.BoldStyle.Render(v.Name)
	if v.Locked {
		name += " " + cli.SealIcon
	}

	var due string
	if v.Frequency == model.FrequencyMonthly {
		due = fmt.Sprintf("day %d of every month", v.DueDay)
	} else {
		due = fmt.Sprintf("next due %s", v.NextDueDate)
		if v.DueNow && !v.PaidInCycle {
			due = cli.WarningStyle.Render(due + " (due now)")
		}
	}

	remaining := schedule.FormatRemaining(v.DaysRemaining)
	switch v.Urgency {
	case schedule.UrgencyWarning:
		remaining = cli.WarningStyle.Render(remaining)
	case schedule.UrgencyCritical:
		remaining = cli.ErrorStyle.Render(remaining)
	default:
		remaining = cli.SubtleStyle.Render(remaining)
	}

	parts := []string{
		check,
		name,
		v.Amount.StringFixed(2),
		cli.SubtleStyle.Render(v.CadenceLabel),
		due,
		remaining,
		cli.SubtleStyle.Render(v.ID.String()[:8]),
	}
	return "  " + strings.Join(parts, "  ")
}

func archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "List archived obligations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := eng.Archived(cmd.Context())
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Archive is empty."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(cli.ArchiveIcon + " Archived obligations"))
			for _, r := range records {
				fmt.Printf("  %s  %s  ended %s  archived %s\n",
					cli.BoldStyle.Render(r.Name),
					r.Amount.StringFixed(2),
					r.EndDate,
					r.ArchivedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show this month's outstanding totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := eng.Summary(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render(cli.CoinIcon + " Monthly summary"))
			fmt.Printf("  Obligations:          %d\n", s.TotalObligations)
			fmt.Printf("  Outstanding:          %s\n", cli.BoldStyle.Render(s.OutstandingTotal.StringFixed(2)))
			fmt.Printf("    Debt:               %s\n", s.DebtOutstanding.StringFixed(2))
			fmt.Printf("    Savings:            %s\n", s.SavingsOutstanding.StringFixed(2))
			fmt.Printf("  Remaining principal:  %s\n", s.RemainingPrincipal.StringFixed(2))
			return nil
		},
	}
}
