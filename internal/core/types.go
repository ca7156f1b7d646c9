package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provenance records whether a translation was written by a person or a machine.
type Provenance string

const (
	ProvenanceManual  Provenance = "manual"
	ProvenanceMachine Provenance = "machine"
)

// Valid reports whether p is one of the known provenance kinds.
func (p Provenance) Valid() bool {
	return p == ProvenanceManual || p == ProvenanceMachine
}

// TranslationUnit is one content object being translated from a source
// locale into a target locale. Its identity never changes once created.
type TranslationUnit struct {
	ID           uuid.UUID
	ObjectID     string // Owning content object; scopes every Context
	ObjectLabel  string // Human-readable label, used for download filenames
	SourceLocale string
	TargetLocale string
}

// SourceString is canonical source-locale text, shared by every Context
// that contains the same text.
type SourceString struct {
	ID     int64
	Locale string
	Text   string
}

// Context is the location path of a string inside a content object.
type Context struct {
	ID       int64
	ObjectID string
	Path     string
}

// Segment is one occurrence of a SourceString at a Context in the unit's
// current content. Order defines the row order on export.
type Segment struct {
	Order   int
	String  SourceString
	Context Context
}

// pairKey identifies a (SourceString, Context) combination.
type pairKey struct {
	StringID  int64
	ContextID int64
}

func (s Segment) key() pairKey {
	return pairKey{StringID: s.String.ID, ContextID: s.Context.ID}
}

// Translation is the stored target-locale text for a
// (SourceString, Context, locale) triple.
type Translation struct {
	ID           int64
	String       SourceString
	Context      Context
	Locale       string
	Text         string
	Kind         Provenance
	ToolName     string
	TranslatedBy string // Actor ID of the last writer
	UpdatedAt    time.Time
	HasError     bool
	ErrorMessage string
}

func (t Translation) key() pairKey {
	return pairKey{StringID: t.String.ID, ContextID: t.Context.ID}
}

// Actor is the user or system performing an export or import.
type Actor struct {
	ID   string
	Name string
}

// Authorizer decides whether an actor may export or import a unit.
// It is supplied by the calling system.
type Authorizer interface {
	CanEdit(ctx context.Context, actor Actor, unit TranslationUnit) bool
}

// AuthorizerFunc adapts a plain function to Authorizer.
type AuthorizerFunc func(ctx context.Context, actor Actor, unit TranslationUnit) bool

// CanEdit calls f.
func (f AuthorizerFunc) CanEdit(ctx context.Context, actor Actor, unit TranslationUnit) bool {
	return f(ctx, actor, unit)
}

// AllowAll permits every actor. Useful for the CLI and tests.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, Actor, TranslationUnit) bool { return true })

// AllowActors permits the listed actor IDs on every unit. With no IDs it
// permits any actor that has an ID.
func AllowActors(ids ...string) Authorizer {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return AuthorizerFunc(func(_ context.Context, actor Actor, _ TranslationUnit) bool {
		if actor.ID == "" {
			return false
		}
		if len(allowed) == 0 {
			return true
		}
		_, ok := allowed[actor.ID]
		return ok
	})
}

// ImportOptions controls a single import.
type ImportOptions struct {
	DeleteUnseen bool       // Delete target-locale translations not seen in the document
	Actor        Actor      // Recorded as TranslatedBy on written translations
	Kind         Provenance // Defaults to ProvenanceManual
	ToolName     string
	DryRun       bool // Reconcile inside the transaction, then roll back
}

// ImportResult contains the outcome of reconciling a document.
type ImportResult struct {
	Applied  int // Created + Updated
	Created  int
	Updated  int
	Deleted  int64
	Warnings []Warning
}

// ImportStatus is the user-facing classification of an import attempt.
type ImportStatus string

const (
	StatusImported    ImportStatus = "imported"
	StatusInvalidFile ImportStatus = "invalid_file"
	StatusWrongUnit   ImportStatus = "wrong_unit"
)

// ImportOutcome is returned by Service.ImportUnit. Structural problems with
// the uploaded file are reported here rather than as errors.
type ImportOutcome struct {
	UnitID   string        `json:"unitId"`
	Status   ImportStatus  `json:"status"`
	Applied  int           `json:"applied"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Deleted  int64         `json:"deleted"`
	Warnings []Warning     `json:"warnings,omitempty"`
	Reason   string        `json:"reason,omitempty"` // Structural failure detail
	DryRun   bool          `json:"dryRun,omitempty"`
	Duration time.Duration `json:"-"`
}

// ExportFile is a rendered spreadsheet ready to be served or written to disk.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
	Obsolete    int
}
