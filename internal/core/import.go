package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// errDryRun forces InTx to roll back after a successful dry run.
var errDryRun = errors.New("dry run")

// Importer reconciles a decoded document against stored translations.
type Importer struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithImporterLogger sets the logger used for the import summary.
func WithImporterLogger(l *slog.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

// WithImporterClock sets the clock stamped on written translations.
func WithImporterClock(now func() time.Time) ImporterOption {
	return func(im *Importer) { im.now = now }
}

// NewImporter creates an Importer writing through store.
func NewImporter(store Store, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Apply validates doc's identity against unit and reconciles every row in a
// single transaction. Row problems become warnings and never abort the
// import; any store error rolls back every write and deletion.
//
// With opts.DryRun the full reconciliation runs and is then rolled back, so
// the result reports what a real import would do.
func (im *Importer) Apply(ctx context.Context, unit TranslationUnit, doc *Document, opts ImportOptions) (*ImportResult, error) {
	if doc == nil {
		return nil, structuralf(ReasonUnreadable, nil, "no document")
	}
	if doc.UnitID != unit.ID || doc.Marker != MarkerFromUUID(unit.ID) {
		return nil, structuralf(ReasonIdentityMismatch, nil, "document belongs to unit %s", doc.UnitID)
	}
	if opts.Kind == "" {
		opts.Kind = ProvenanceManual
	}
	if !opts.Kind.Valid() {
		return nil, fmt.Errorf("unknown provenance %q", opts.Kind)
	}

	var result *ImportResult
	err := im.store.InTx(ctx, func(tx Tx) error {
		res, err := im.reconcile(ctx, tx, unit, doc, opts)
		if err != nil {
			return err
		}
		result = res
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, fmt.Errorf("import unit %s: %w", unit.ID, err)
	}

	logger := im.logger.With(
		slog.String("unit_id", unit.ID.String()),
		slog.String("actor", opts.Actor.ID),
	)
	for _, w := range result.Warnings {
		logger.Debug("import warning",
			slog.String("kind", string(w.Kind())),
			slog.Int("sheet_row", SheetRow(w)),
			slog.String("detail", w.String()),
		)
	}
	logger.Info("import reconciled",
		slog.Int("rows", len(doc.Rows)),
		slog.Int("applied", result.Applied),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int64("deleted", result.Deleted),
		slog.Int("warnings", len(result.Warnings)),
		slog.Bool("dry_run", opts.DryRun),
	)

	return result, nil
}

// reconcile runs the per-row pass and the optional deletion inside tx.
func (im *Importer) reconcile(ctx context.Context, tx Tx, unit TranslationUnit, doc *Document, opts ImportOptions) (*ImportResult, error) {
	res := &ImportResult{}
	seen := make(map[int64]struct{})
	now := im.now()

	for i, row := range doc.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		str, err := tx.FindString(ctx, unit.SourceLocale, row.Source)
		if errors.Is(err, ErrNotFound) {
			res.Warnings = append(res.Warnings, UnknownString{Row: i, Text: row.Source})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: find string: %w", i, err)
		}

		c, err := tx.FindContext(ctx, unit.ObjectID, row.Context)
		if errors.Is(err, ErrNotFound) {
			res.Warnings = append(res.Warnings, UnknownContext{Row: i, Path: row.Context})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: find context: %w", i, err)
		}

		if row.Translation == "" {
			continue
		}

		used, err := pairInUse(ctx, tx, unit, str.ID, c.ID)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if !used {
			res.Warnings = append(res.Warnings, StringNotUsedInContext{Row: i, Text: row.Source, Path: row.Context})
			continue
		}

		existing, err := tx.FindTranslation(ctx, str.ID, c.ID, unit.TargetLocale)
		switch {
		case errors.Is(err, ErrNotFound):
			created, err := tx.CreateTranslation(ctx, Translation{
				String:       str,
				Context:      c,
				Locale:       unit.TargetLocale,
				Text:         row.Translation,
				Kind:         opts.Kind,
				ToolName:     opts.ToolName,
				TranslatedBy: opts.Actor.ID,
				UpdatedAt:    now,
			})
			if err != nil {
				return nil, fmt.Errorf("row %d: create translation: %w", i, err)
			}
			seen[created.ID] = struct{}{}
			res.Created++

		case err != nil:
			return nil, fmt.Errorf("row %d: find translation: %w", i, err)

		default:
			seen[existing.ID] = struct{}{}
			if existing.Text == row.Translation {
				continue
			}
			existing.Text = row.Translation
			existing.Kind = opts.Kind
			existing.ToolName = opts.ToolName
			existing.TranslatedBy = opts.Actor.ID
			existing.UpdatedAt = now
			if err := tx.UpdateTranslation(ctx, existing); err != nil {
				return nil, fmt.Errorf("row %d: update translation: %w", i, err)
			}
			res.Updated++
		}
	}
	res.Applied = res.Created + res.Updated

	if opts.DeleteUnseen {
		keep := make([]int64, 0, len(seen))
		for id := range seen {
			keep = append(keep, id)
		}
		slices.Sort(keep)
		n, err := tx.DeleteTranslationsExcept(ctx, unit, keep)
		if err != nil {
			return nil, fmt.Errorf("delete unseen translations: %w", err)
		}
		res.Deleted = n
	}

	return res, nil
}

// pairInUse reports whether a translation may be attached to the pair: it
// must be a live segment or already have a translation on record.
func pairInUse(ctx context.Context, tx Tx, unit TranslationUnit, stringID, contextID int64) (bool, error) {
	ok, err := tx.HasSegment(ctx, unit, stringID, contextID)
	if err != nil {
		return false, fmt.Errorf("check segment: %w", err)
	}
	if ok {
		return true, nil
	}
	ok, err = tx.HasTranslation(ctx, stringID, contextID)
	if err != nil {
		return false, fmt.Errorf("check translation: %w", err)
	}
	return ok, nil
}
