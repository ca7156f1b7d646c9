package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/locsheet/internal/core"
	"github.com/JonMunkholm/locsheet/internal/i18n"
	"github.com/JonMunkholm/locsheet/internal/lock"
)

// errRejected is returned when the file fails structural validation, so the
// process exits non-zero.
var errRejected = errors.New("import rejected")

type importFlags struct {
	deleteUnseen bool
	dryRun       bool
	machine      bool
	asJSON       bool
	actor        string
	toolName     string
}

func newImportCommand(a *app) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import UNIT_ID FILE",
		Short: "Apply an edited spreadsheet to a unit",
		Long: `Import reads a workbook exported for UNIT_ID and writes its non-empty
translations. Rows that no longer match the unit are reported as warnings.
With --dry-run the changes are computed and rolled back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid unit ID %q: %w", args[0], err)
			}
			return a.runImport(cmd, unitID, args[1], f)
		},
	}

	cmd.Flags().BoolVar(&f.deleteUnseen, "delete-unseen", false, "delete translations missing from the file")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "roll back after reconciling")
	cmd.Flags().BoolVar(&f.machine, "machine", false, "record translations as machine-produced")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the outcome as JSON")
	cmd.Flags().StringVar(&f.actor, "actor", "cli", "actor recorded as translator")
	cmd.Flags().StringVar(&f.toolName, "tool-name", "", "tool name recorded on translations (default from config)")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, unitID uuid.UUID, path string, f importFlags) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	ctx := cmd.Context()
	svc, _, closeFn, err := a.service(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	cfg := a.cfg

	var locker lock.Locker = lock.Nop{}
	if cfg.Redis.Enabled() {
		rl, err := lock.Connect(ctx, cfg.Redis.URL, cfg.Redis.LockTTL)
		if err != nil {
			return err
		}
		defer rl.Close()
		locker = rl
	}
	release, err := locker.Acquire(ctx, unitID)
	if err != nil {
		return err
	}
	defer release()

	opts := core.ImportOptions{
		DeleteUnseen: f.deleteUnseen,
		DryRun:       f.dryRun,
		ToolName:     f.toolName,
	}
	if f.machine {
		opts.Kind = core.ProvenanceMachine
	}

	outcome, err := svc.ImportUnit(ctx, unitID, file, core.Actor{ID: f.actor, Name: f.actor}, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return err
		}
	} else if err := printOutcome(out, cfg.Interchange.DefaultLocale, outcome); err != nil {
		return err
	}

	if outcome.Status != core.StatusImported {
		return fmt.Errorf("%w: %s", errRejected, outcome.Reason)
	}
	return nil
}

// printOutcome writes the human-readable import summary.
func printOutcome(w io.Writer, lang string, outcome *core.ImportOutcome) error {
	tr, err := i18n.New(lang)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, tr.Headline(lang, outcome))
	if outcome.Status != core.StatusImported {
		msg := tr.UserMessage(lang, core.OutcomeMessage(outcome))
		fmt.Fprintf(w, "%s (%s)\n", msg.Action, msg.Code)
		return nil
	}

	fmt.Fprintf(w, "  %s\n  %s\n",
		tr.Plural(lang, "summary_created", outcome.Created),
		tr.Plural(lang, "summary_updated", outcome.Updated),
	)
	if outcome.Deleted > 0 {
		fmt.Fprintf(w, "  %s\n", tr.Plural(lang, "summary_deleted", int(outcome.Deleted)))
	}
	if outcome.DryRun {
		fmt.Fprintln(w, tr.T(lang, "summary_dry_run", nil))
	}
	if len(outcome.Warnings) > 0 {
		fmt.Fprintln(w, tr.Plural(lang, "summary_warnings", len(outcome.Warnings)))
		for _, wr := range outcome.Warnings {
			fmt.Fprintf(w, "  - %s\n", tr.Warning(lang, wr))
		}
	}
	return nil
}
