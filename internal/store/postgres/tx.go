package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/JonMunkholm/locsheet/internal/core"
)

var _ core.Tx = (*tx)(nil)

type tx struct {
	q querier
}

const selectString = `
	SELECT id, locale, data
	FROM source_strings
	WHERE locale = $1 AND md5(data) = md5($2) AND data = $2`

func (t *tx) FindString(ctx context.Context, locale, text string) (core.SourceString, error) {
	var s core.SourceString
	err := t.q.QueryRow(ctx, selectString, locale, text).Scan(&s.ID, &s.Locale, &s.Text)
	if err != nil {
		return core.SourceString{}, mapPgError(err, "find string")
	}
	return s, nil
}

const selectContext = `
	SELECT id, object_id, path
	FROM contexts
	WHERE object_id = $1 AND path = $2`

func (t *tx) FindContext(ctx context.Context, objectID, path string) (core.Context, error) {
	var c core.Context
	err := t.q.QueryRow(ctx, selectContext, objectID, path).Scan(&c.ID, &c.ObjectID, &c.Path)
	if err != nil {
		return core.Context{}, mapPgError(err, "find context")
	}
	return c, nil
}

const existsSegment = `
	SELECT EXISTS (
		SELECT 1 FROM segments WHERE unit_id = $1 AND string_id = $2 AND context_id = $3
	)`

func (t *tx) HasSegment(ctx context.Context, unit core.TranslationUnit, stringID, contextID int64) (bool, error) {
	var ok bool
	if err := t.q.QueryRow(ctx, existsSegment, unit.ID, stringID, contextID).Scan(&ok); err != nil {
		return false, mapPgError(err, "check segment")
	}
	return ok, nil
}

const existsTranslation = `
	SELECT EXISTS (
		SELECT 1 FROM string_translations WHERE string_id = $1 AND context_id = $2
	)`

func (t *tx) HasTranslation(ctx context.Context, stringID, contextID int64) (bool, error) {
	var ok bool
	if err := t.q.QueryRow(ctx, existsTranslation, stringID, contextID).Scan(&ok); err != nil {
		return false, mapPgError(err, "check translation")
	}
	return ok, nil
}

func (t *tx) FindTranslation(ctx context.Context, stringID, contextID int64, locale string) (core.Translation, error) {
	query, args, err := translationQuery().
		Where(sq.Eq{"t.string_id": stringID, "t.context_id": contextID, "t.locale": locale}).
		Suffix("FOR UPDATE OF t").
		ToSql()
	if err != nil {
		return core.Translation{}, fmt.Errorf("build query: %w", err)
	}
	tr, err := scanTranslation(t.q.QueryRow(ctx, query, args...))
	if err != nil {
		return core.Translation{}, mapPgError(err, "find translation")
	}
	return tr, nil
}

const insertTranslation = `
	INSERT INTO string_translations (
		string_id, context_id, locale, data, kind, tool_name, translated_by,
		updated_at, has_error, error_message
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (string_id, context_id, locale) DO UPDATE SET
		data = EXCLUDED.data, kind = EXCLUDED.kind, tool_name = EXCLUDED.tool_name,
		translated_by = EXCLUDED.translated_by, updated_at = EXCLUDED.updated_at,
		has_error = EXCLUDED.has_error, error_message = EXCLUDED.error_message
	RETURNING id`

// CreateTranslation inserts tr, or overwrites the row a concurrent import
// created for the same string, context and locale since FindTranslation.
func (t *tx) CreateTranslation(ctx context.Context, tr core.Translation) (core.Translation, error) {
	err := t.q.QueryRow(ctx, insertTranslation,
		tr.String.ID, tr.Context.ID, tr.Locale, tr.Text, string(tr.Kind), tr.ToolName,
		tr.TranslatedBy, tr.UpdatedAt, tr.HasError, tr.ErrorMessage,
	).Scan(&tr.ID)
	if err != nil {
		return core.Translation{}, mapPgError(err, "create translation")
	}
	return tr, nil
}

const updateTranslation = `
	UPDATE string_translations
	SET data = $2, kind = $3, tool_name = $4, translated_by = $5,
	    updated_at = $6, has_error = $7, error_message = $8
	WHERE id = $1`

func (t *tx) UpdateTranslation(ctx context.Context, tr core.Translation) error {
	tag, err := t.q.Exec(ctx, updateTranslation,
		tr.ID, tr.Text, string(tr.Kind), tr.ToolName, tr.TranslatedBy,
		tr.UpdatedAt, tr.HasError, tr.ErrorMessage,
	)
	if err != nil {
		return mapPgError(err, "update translation")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update translation %d: %w", tr.ID, core.ErrNotFound)
	}
	return nil
}

func (t *tx) DeleteTranslationsExcept(ctx context.Context, unit core.TranslationUnit, keep []int64) (int64, error) {
	q := psql.Delete("string_translations").
		Where(sq.Eq{"locale": unit.TargetLocale}).
		Where("context_id IN (SELECT id FROM contexts WHERE object_id = ?)", unit.ObjectID)
	if len(keep) > 0 {
		// One array parameter regardless of how many rows were seen.
		q = q.Where("id <> ALL(?)", keep)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	tag, err := t.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgError(err, "delete unseen translations")
	}
	return tag.RowsAffected(), nil
}
