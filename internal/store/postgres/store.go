// Package postgres implements core.Store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/locsheet/internal/core"
)

var _ core.Store = (*Store)(nil)

// DB is the subset of *pgxpool.Pool used by the store. pgxmock pools
// satisfy it as well.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier is implemented by both DB and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// psql builds statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store is a PostgreSQL-backed core.Store.
type Store struct {
	db DB
}

// New wraps db, usually a *pgxpool.Pool.
func New(db DB) *Store {
	return &Store{db: db}
}

const selectUnit = `
	SELECT id, object_id, object_label, source_locale, target_locale
	FROM translation_units
	WHERE id = $1`

func (s *Store) GetUnit(ctx context.Context, id uuid.UUID) (core.TranslationUnit, error) {
	var u core.TranslationUnit
	err := s.db.QueryRow(ctx, selectUnit, id).
		Scan(&u.ID, &u.ObjectID, &u.ObjectLabel, &u.SourceLocale, &u.TargetLocale)
	if err != nil {
		return core.TranslationUnit{}, mapPgError(err, "get unit")
	}
	return u, nil
}

const selectSegments = `
	SELECT s.ord, ss.id, ss.locale, ss.data, c.id, c.object_id, c.path
	FROM segments s
	JOIN source_strings ss ON ss.id = s.string_id
	JOIN contexts c ON c.id = s.context_id
	WHERE s.unit_id = $1
	ORDER BY s.ord`

func (s *Store) ListSegments(ctx context.Context, unit core.TranslationUnit) ([]core.Segment, error) {
	rows, err := s.db.Query(ctx, selectSegments, unit.ID)
	if err != nil {
		return nil, mapPgError(err, "list segments")
	}
	defer rows.Close()

	var out []core.Segment
	for rows.Next() {
		var seg core.Segment
		if err := rows.Scan(
			&seg.Order,
			&seg.String.ID, &seg.String.Locale, &seg.String.Text,
			&seg.Context.ID, &seg.Context.ObjectID, &seg.Context.Path,
		); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "list segments")
	}
	return out, nil
}

// translationQuery selects translations joined with their string and context.
func translationQuery() sq.SelectBuilder {
	return psql.Select(
		"t.id", "t.locale", "t.data", "t.kind", "t.tool_name", "t.translated_by",
		"t.updated_at", "t.has_error", "t.error_message",
		"ss.id", "ss.locale", "ss.data",
		"c.id", "c.object_id", "c.path",
	).
		From("string_translations t").
		Join("source_strings ss ON ss.id = t.string_id").
		Join("contexts c ON c.id = t.context_id")
}

func scanTranslation(row pgx.Row) (core.Translation, error) {
	var t core.Translation
	var kind string
	err := row.Scan(
		&t.ID, &t.Locale, &t.Text, &kind, &t.ToolName, &t.TranslatedBy,
		&t.UpdatedAt, &t.HasError, &t.ErrorMessage,
		&t.String.ID, &t.String.Locale, &t.String.Text,
		&t.Context.ID, &t.Context.ObjectID, &t.Context.Path,
	)
	t.Kind = core.Provenance(kind)
	return t, err
}

func (s *Store) ListTranslations(ctx context.Context, unit core.TranslationUnit) ([]core.Translation, error) {
	query, args, err := translationQuery().
		Where(sq.Eq{"t.locale": unit.TargetLocale, "c.object_id": unit.ObjectID}).
		OrderBy("t.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "list translations")
	}
	defer rows.Close()

	var out []core.Translation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "list translations")
	}
	return out, nil
}

const insertAudit = `
	INSERT INTO interchange_audit (
		action, severity, unit_id, actor_id, actor_name, ip_address, user_agent,
		rows_affected, deleted, warnings, reason, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func (s *Store) RecordAudit(ctx context.Context, e core.AuditEntry) error {
	_, err := s.db.Exec(ctx, insertAudit,
		string(e.Action), string(e.Severity), e.UnitID, e.ActorID, e.ActorName,
		e.IPAddress, e.UserAgent, e.RowsAffected, e.Deleted, e.Warnings, e.Reason, e.CreatedAt,
	)
	if err != nil {
		return mapPgError(err, "record audit")
	}
	return nil
}

// InTx runs fn in a read-committed transaction. The transaction is rolled
// back if fn fails or panics.
func (s *Store) InTx(ctx context.Context, fn func(core.Tx) error) error {
	pgtx, err := s.db.Begin(ctx)
	if err != nil {
		return mapPgError(err, "begin")
	}
	defer pgtx.Rollback(ctx)

	if err := fn(&tx{q: pgtx}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return mapPgError(err, "commit")
	}
	return nil
}

// isNoRows reports whether err means a lookup matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
