package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/duekeeper/internal/cli"
)

func payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <name-or-id>",
		Short: "Mark an obligation paid for its current cycle",
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

			if target.Locked {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("%q is sealed for this month; payment state is frozen", target.Name)))
				return nil
			}
			if target.PaidInCycle {
				fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%q is already paid for this cycle", target.Name)))
				return nil
			}

			return eng.MarkPaid(cmd.Context(), target.ID)
		},
	}
}

func unpayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpay <name-or-id>",
		Short: "Clear an obligation's paid flag for the current cycle",
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

			if target.Locked {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("%q is sealed for this month; payment state is frozen", target.Name)))
				return nil
			}

			if err := eng.UnmarkPaid(cmd.Context(), target.ID); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Cleared payment on %q", target.Name)))
			return nil
		},
	}
}
