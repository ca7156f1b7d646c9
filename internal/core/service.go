package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultToolName is recorded on translations written by spreadsheet import.
const DefaultToolName = "XLSX File"

// DefaultImportTimeout bounds one import from decode to commit.
const DefaultImportTimeout = 2 * time.Minute

// Service is the entry point for exporting and importing translation units.
type Service struct {
	store      Store
	importer   *Importer
	authorizer Authorizer
	limiter    *ImportLimiter
	limits     WorkbookLimits
	logger     *slog.Logger
	now        func() time.Time
	toolName   string
	timeout    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithAuthorizer sets the permission check for export and import.
func WithAuthorizer(a Authorizer) Option {
	return func(s *Service) { s.authorizer = a }
}

// WithLimiter sets the limiter bounding concurrent imports.
func WithLimiter(l *ImportLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithWorkbookLimits sets the size limits applied to uploads.
func WithWorkbookLimits(l WorkbookLimits) Option {
	return func(s *Service) { s.limits = l }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides time.Now for export timestamps and audit entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithToolName sets the tool name used when ImportOptions leaves it empty.
func WithToolName(name string) Option {
	return func(s *Service) { s.toolName = name }
}

// WithImportTimeout bounds each import. Zero disables the bound.
func WithImportTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a Service backed by store. Without WithAuthorizer every
// actor is denied.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		authorizer: AuthorizerFunc(func(context.Context, Actor, TranslationUnit) bool { return false }),
		limits:     DefaultWorkbookLimits,
		logger:     slog.Default(),
		now:        time.Now,
		toolName:   DefaultToolName,
		timeout:    DefaultImportTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultImportWait)
	}
	s.importer = NewImporter(store, WithImporterLogger(s.logger), WithImporterClock(s.now))
	return s
}

// Limiter returns the import limiter, for status reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Unit loads a translation unit, mapping a missing unit to ErrUnitNotFound.
func (s *Service) Unit(ctx context.Context, id uuid.UUID) (TranslationUnit, error) {
	unit, err := s.store.GetUnit(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return TranslationUnit{}, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	if err != nil {
		return TranslationUnit{}, fmt.Errorf("load unit %s: %w", id, err)
	}
	return unit, nil
}

func (s *Service) authorize(ctx context.Context, actor Actor, unit TranslationUnit) error {
	if !s.authorizer.CanEdit(ctx, actor, unit) {
		return fmt.Errorf("%w: %s may not edit unit %s", ErrPermissionDenied, actor.ID, unit.ID)
	}
	return nil
}

// ExportUnit renders the unit's current segments and translations as a
// workbook.
func (s *Service) ExportUnit(ctx context.Context, unitID uuid.UUID, actor Actor) (*ExportFile, error) {
	unit, err := s.Unit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, unit); err != nil {
		return nil, err
	}

	segments, err := s.store.ListSegments(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	translations, err := s.store.ListTranslations(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}

	doc := Export(unit, segments, translations, s.now())
	data, err := EncodeWorkbook(doc)
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}

	file := &ExportFile{
		Filename:    ExportFilename(unit),
		ContentType: ContentType,
		Data:        data,
		Rows:        len(doc.Rows),
		Obsolete:    doc.ObsoleteCount(),
	}

	s.logAudit(ctx, AuditLogParams{
		Action:       ActionExport,
		Unit:         unit,
		Actor:        actor,
		RowsAffected: file.Rows,
	})
	s.logger.Info("unit exported",
		slog.String("unit_id", unit.ID.String()),
		slog.String("actor", actor.ID),
		slog.Int("rows", file.Rows),
		slog.Int("obsolete", file.Obsolete),
	)
	return file, nil
}

// ImportUnit decodes an uploaded workbook and reconciles it into the unit's
// target locale. A file that fails structural validation is reported through
// the outcome's Status with a nil error; errors are reserved for missing
// units, denied actors, an exhausted limiter and store failures.
func (s *Service) ImportUnit(ctx context.Context, unitID uuid.UUID, r io.Reader, actor Actor, opts ImportOptions) (*ImportOutcome, error) {
	start := s.now()

	unit, err := s.Unit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, unit); err != nil {
		return nil, err
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	outcome := &ImportOutcome{UnitID: unit.ID.String(), DryRun: opts.DryRun}

	doc, err := DecodeWorkbook(r, unit, s.limits)
	if err != nil {
		var se *StructuralError
		if !errors.As(err, &se) {
			return nil, err
		}
		outcome.Status = statusFor(se.Reason)
		outcome.Reason = se.Error()
		outcome.Duration = s.now().Sub(start)
		s.logAudit(ctx, AuditLogParams{
			Action: ActionImportReject,
			Unit:   unit,
			Actor:  actor,
			Reason: string(se.Reason),
		})
		s.logger.Info("import rejected",
			slog.String("unit_id", unit.ID.String()),
			slog.String("actor", actor.ID),
			slog.String("reason", se.Error()),
		)
		return outcome, nil
	}

	opts.Actor = actor
	if opts.ToolName == "" {
		opts.ToolName = s.toolName
	}

	res, err := s.importer.Apply(ctx, unit, doc, opts)
	if err != nil {
		return nil, err
	}

	outcome.Status = StatusImported
	outcome.Applied = res.Applied
	outcome.Created = res.Created
	outcome.Updated = res.Updated
	outcome.Deleted = res.Deleted
	outcome.Warnings = res.Warnings
	outcome.Duration = s.now().Sub(start)

	action := ActionImport
	if opts.DryRun {
		action = ActionImportDryRun
	}
	s.logAudit(ctx, AuditLogParams{
		Action:       action,
		Unit:         unit,
		Actor:        actor,
		RowsAffected: res.Applied,
		Deleted:      res.Deleted,
		Warnings:     len(res.Warnings),
	})
	return outcome, nil
}

func statusFor(reason StructuralReason) ImportStatus {
	if reason == ReasonIdentityMismatch {
		return StatusWrongUnit
	}
	return StatusInvalidFile
}
