package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/locsheet/internal/core"
)

// unitFile is the YAML document accepted by the load command:
//
//	unit:
//	  id: 5f0c...        # optional; generated when empty
//	  object_id: page-1
//	  object_label: Landing Page
//	  source_locale: en
//	  target_locale: fr
//	segments:
//	  - path: body.heading
//	    text: Hello
type unitFile struct {
	Unit struct {
		ID           string `yaml:"id"`
		ObjectID     string `yaml:"object_id"`
		ObjectLabel  string `yaml:"object_label"`
		SourceLocale string `yaml:"source_locale"`
		TargetLocale string `yaml:"target_locale"`
	} `yaml:"unit"`
	Segments []core.SegmentInput `yaml:"segments"`
}

func (f *unitFile) toUnit() (core.TranslationUnit, error) {
	u := core.TranslationUnit{
		ObjectID:     f.Unit.ObjectID,
		ObjectLabel:  f.Unit.ObjectLabel,
		SourceLocale: f.Unit.SourceLocale,
		TargetLocale: f.Unit.TargetLocale,
	}

	var errs []error
	if u.ObjectID == "" {
		errs = append(errs, errors.New("unit.object_id is required"))
	}
	if u.SourceLocale == "" {
		errs = append(errs, errors.New("unit.source_locale is required"))
	}
	if u.TargetLocale == "" {
		errs = append(errs, errors.New("unit.target_locale is required"))
	}
	if u.SourceLocale != "" && u.SourceLocale == u.TargetLocale {
		errs = append(errs, fmt.Errorf("unit.target_locale must differ from source_locale %q", u.SourceLocale))
	}
	for i, seg := range f.Segments {
		if seg.Path == "" {
			errs = append(errs, fmt.Errorf("segments[%d].path is required", i))
		}
	}

	if f.Unit.ID == "" {
		u.ID = uuid.New()
	} else {
		id, err := uuid.Parse(f.Unit.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("unit.id: %w", err))
		}
		u.ID = id
	}
	return u, errors.Join(errs...)
}

func newLoadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Create or refresh a unit and its segments from YAML",
		Long: `Load publishes the current content of an object: it creates the unit if
needed and replaces its live segments. Existing translations are kept, so
segments that disappear show up as obsolete rows on the next export.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var doc unitFile
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			unit, err := doc.toUnit()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			_, store, closeFn, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.SyncUnit(ctx, unit, doc.Segments); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded unit %s with %d segments\n", unit.ID, len(doc.Segments))
			return nil
		},
	}
}
