package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/locsheet/internal/core"
)

const upsertUnit = `
	INSERT INTO translation_units (id, object_id, object_label, source_locale, target_locale)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET object_label = EXCLUDED.object_label`

const upsertString = `
	INSERT INTO source_strings (locale, data) VALUES ($1, $2)
	ON CONFLICT (locale, md5(data)) DO UPDATE SET locale = EXCLUDED.locale
	RETURNING id`

const upsertContext = `
	INSERT INTO contexts (object_id, path) VALUES ($1, $2)
	ON CONFLICT (object_id, path) DO UPDATE SET path = EXCLUDED.path
	RETURNING id`

const deleteSegments = `DELETE FROM segments WHERE unit_id = $1`

var segmentColumns = []string{"unit_id", "ord", "string_id", "context_id"}

// SyncUnit creates or relabels unit and replaces its live segments with
// segments, in order. Strings and contexts are created on first use and
// never deleted, so existing translations keep resolving.
func (s *Store) SyncUnit(ctx context.Context, unit core.TranslationUnit, segments []core.SegmentInput) error {
	pgtx, err := s.db.Begin(ctx)
	if err != nil {
		return mapPgError(err, "begin")
	}
	defer pgtx.Rollback(ctx)

	if _, err := pgtx.Exec(ctx, upsertUnit,
		unit.ID, unit.ObjectID, unit.ObjectLabel, unit.SourceLocale, unit.TargetLocale,
	); err != nil {
		return mapPgError(err, "save unit")
	}
	if _, err := pgtx.Exec(ctx, deleteSegments, unit.ID); err != nil {
		return mapPgError(err, "clear segments")
	}

	if len(segments) > 0 {
		rows := make([][]any, len(segments))
		for i, seg := range segments {
			stringID, err := returningID(ctx, pgtx, upsertString, unit.SourceLocale, seg.Text)
			if err != nil {
				return mapPgError(err, "save string")
			}
			contextID, err := returningID(ctx, pgtx, upsertContext, unit.ObjectID, seg.Path)
			if err != nil {
				return mapPgError(err, "save context")
			}
			rows[i] = []any{unit.ID, i + 1, stringID, contextID}
		}
		// COPY has no bind parameter limit, unlike a multi-row INSERT.
		if _, err := pgtx.CopyFrom(ctx, pgx.Identifier{"segments"}, segmentColumns, pgx.CopyFromRows(rows)); err != nil {
			return mapPgError(err, "save segments")
		}
	}

	if err := pgtx.Commit(ctx); err != nil {
		return mapPgError(err, "commit")
	}
	return nil
}

func returningID(ctx context.Context, q pgx.Tx, sql string, args ...any) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, sql, args...).Scan(&id)
	return id, err
}
