package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/duekeeper/internal/cli"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export obligations and archive to a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := eng.Export(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported to %s", output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default: stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a previously exported JSON file",
		Long: `Import merges additively: incoming records are appended, never
replacing what is already stored. Paid flags survive only when stamped
for the current cycle, and anything past its end date lands in the
archive directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			eng, cleanup, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := eng.Import(cmd.Context(), data)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Imported %d active, %d archived (%d payment(s) preserved)",
				stats.ActiveAdded, stats.ArchivedAdded, stats.PaidPreserved)))
			return nil
		},
	}
}
