package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/locsheet/internal/core"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		output string
		actor  string
	)

	cmd := &cobra.Command{
		Use:   "export UNIT_ID",
		Short: "Write a unit's translation spreadsheet",
		Long: `Export writes the workbook for a translation unit. Without --output the
file is written to the current directory under its suggested name; use
"--output -" to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid unit ID %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			svc, _, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			file, err := svc.ExportUnit(ctx, unitID, core.Actor{ID: actor, Name: actor})
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(file.Data)
				return err
			}
			if output == "" {
				output = file.Filename
			}
			if err := os.WriteFile(output, file.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows (%d obsolete) to %s\n", file.Rows, file.Obsolete, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path, or - for stdout")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit log")
	return cmd
}
