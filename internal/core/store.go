package core

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence port used by Service. Reads outside InTx see
// only committed state.
type Store interface {
	GetUnit(ctx context.Context, id uuid.UUID) (TranslationUnit, error)

	// ListSegments returns the unit's current segments in ascending Order.
	ListSegments(ctx context.Context, unit TranslationUnit) ([]Segment, error)

	// ListTranslations returns every translation in the unit's target locale
	// attached to a context of the unit's object, including those whose
	// segment no longer exists.
	ListTranslations(ctx context.Context, unit TranslationUnit) ([]Translation, error)

	// InTx runs fn in a single transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	RecordAudit(ctx context.Context, entry AuditEntry) error
}

// Tx is the transactional view used by the importer. Lookups return
// ErrNotFound when nothing matches.
type Tx interface {
	FindString(ctx context.Context, locale, text string) (SourceString, error)
	FindContext(ctx context.Context, objectID, path string) (Context, error)

	// HasSegment reports whether the pair is a live segment of unit.
	HasSegment(ctx context.Context, unit TranslationUnit, stringID, contextID int64) (bool, error)

	// HasTranslation reports whether any translation, in any locale, exists
	// for the pair.
	HasTranslation(ctx context.Context, stringID, contextID int64) (bool, error)

	FindTranslation(ctx context.Context, stringID, contextID int64, locale string) (Translation, error)
	CreateTranslation(ctx context.Context, t Translation) (Translation, error)
	UpdateTranslation(ctx context.Context, t Translation) error

	// DeleteTranslationsExcept deletes the translations in the unit's target
	// locale attached to the unit's object whose IDs are not in keep.
	DeleteTranslationsExcept(ctx context.Context, unit TranslationUnit, keep []int64) (int64, error)
}

// SegmentInput is one segment as supplied by the content system.
type SegmentInput struct {
	Path string `yaml:"path"`
	Text string `yaml:"text"`
}

// UnitSyncer replaces a unit's live segments. Stores implement it so content
// systems can publish the current state of an object.
type UnitSyncer interface {
	SyncUnit(ctx context.Context, unit TranslationUnit, segments []SegmentInput) error
}
