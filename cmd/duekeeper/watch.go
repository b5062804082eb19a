package main

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joshsymonds/duekeeper/internal/cli"
)

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one reconcile pass (rollover, archive, seal expiry)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.Tick(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Reconciled"))
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reconcile on an interval until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			interval := viper.GetDuration("reconcile.interval")
			if interval <= 0 {
				return fmt.Errorf("invalid reconcile.interval %q", viper.GetString("reconcile.interval"))
			}

			ctx := cmd.Context()
			scheduler := cron.New()
			_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", interval), func() {
				if err := eng.Tick(ctx); err != nil {
					slog.Error("reconcile pass failed", "error", err)
				}
			})
			if err != nil {
				return fmt.Errorf("failed to schedule reconcile: %w", err)
			}

			// Catch up immediately rather than waiting a full interval.
			if err := eng.Tick(ctx); err != nil {
				return err
			}

			fmt.Println(cli.FormatInfo(fmt.Sprintf("Watching — reconciling every %s (Ctrl-C to stop)", interval)))
			scheduler.Start()
			<-ctx.Done()
			<-scheduler.Stop().Done()
			return nil
		},
	}
}
