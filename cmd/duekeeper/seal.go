package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/duekeeper/internal/cli"
	"github.com/joshsymonds/duekeeper/internal/engine"
)

func sealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Seal this month's paid obligations",
		Long: `Sealing freezes a snapshot of paid obligations against edits for the
rest of the month. A confirmed seal counts down before committing
(Ctrl-C aborts), then stays undoable for a short grace window
(Ctrl-C undoes). The seal releases automatically at month rollover.`,
	}

	cmd.AddCommand(sealCheckCmd())
	cmd.AddCommand(sealStatusCmd())
	cmd.AddCommand(sealNowCmd())
	return cmd
}

func sealCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check whether a seal can start",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			elig, err := eng.SealEligibility(cmd.Context())
			if err != nil {
				return err
			}
			if elig.Enabled {
				fmt.Println(cli.FormatSuccess("Seal is ready: at least one paid obligation is unsealed"))
			} else {
				fmt.Println(cli.FormatWarning("Cannot seal: " + elig.Reason))
			}
			return nil
		},
	}
}

func sealStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current seal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := eng.Status(cmd.Context())
			if err != nil {
				return err
			}

			if !status.State.Sealed {
				fmt.Println(cli.SubtleStyle.Render("No seal active."))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Sealed for %s", status.State.SealedPeriod)))
			if status.State.SealedAt != nil {
				fmt.Printf("  Sealed at: %s\n", status.State.SealedAt.Format(time.RFC1123))
			}
			for _, item := range status.State.SealedItems {
				fmt.Printf("  %s %s  %s\n", cli.SealIcon, cli.BoldStyle.Render(item.Name), item.Amount.StringFixed(2))
			}

			allSealed, err := eng.AllSealed(cmd.Context())
			if err != nil {
				return err
			}
			if allSealed {
				fmt.Println(cli.SuccessStyle.Render("  Every active obligation is sealed."))
			}
			return nil
		},
	}
}

func sealNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Initiate and confirm a seal, riding out the countdown and grace window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := eng.InitiateSeal(cmd.Context()); err != nil {
				return err
			}
			if err := eng.ConfirmSeal(cmd.Context()); err != nil {
				return err
			}

			fmt.Println(cli.FormatInfo("Seal countdown started — press Ctrl-C to abort"))
			return rideSeal(cmd.Context(), eng)
		},
	}
}

// rideSeal blocks while the in-process countdown and grace timers run.
// Interrupting during the countdown aborts; interrupting during the
// grace window undoes the commit.
func rideSeal(ctx context.Context, eng *engine.Engine) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	announcedGrace := false
	for {
		select {
		case <-ctx.Done():
			status, err := eng.Status(context.Background())
			if err != nil {
				return err
			}
			switch status.Phase {
			case engine.PhaseCountdown:
				if err := eng.AbortSeal(); err != nil {
					return err
				}
				fmt.Println(cli.FormatWarning("Seal aborted — nothing was committed"))
				return nil
			case engine.PhaseGrace:
				if err := eng.UndoSeal(context.Background()); err != nil {
					return err
				}
				return nil
			default:
				return nil
			}

		case <-ticker.C:
			status, err := eng.Status(context.Background())
			if err != nil {
				return err
			}
			switch status.Phase {
			case engine.PhaseGrace:
				if !announcedGrace {
					announcedGrace = true
					fmt.Println(cli.FormatInfo(fmt.Sprintf(
						"Seal committed — press Ctrl-C within %s to undo", status.Remaining.Round(time.Second))))
				}
			case engine.PhaseIdle:
				fmt.Println(cli.FormatSuccess("Seal finalized"))
				return nil
			}
		}
	}
}
