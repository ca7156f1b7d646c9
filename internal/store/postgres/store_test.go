package postgres

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/locsheet/internal/core"
)

var (
	testUnit = core.TranslationUnit{
		ID:           uuid.MustParse("0b7e6b1a-3c1f-4d7e-9a55-2f0d3a1c9e42"),
		ObjectID:     "page-1",
		ObjectLabel:  "Home",
		SourceLocale: "en",
		TargetLocale: "fr",
	}
	testTime = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
)

var translationColumns = []string{
	"id", "locale", "data", "kind", "tool_name", "translated_by",
	"updated_at", "has_error", "error_message",
	"ss_id", "ss_locale", "ss_data",
	"c_id", "c_object_id", "c_path",
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, New(mock)
}

func TestStore_GetUnit(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		want    core.TranslationUnit
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("FROM translation_units").
					WithArgs(testUnit.ID).
					WillReturnRows(mock.NewRows([]string{"id", "object_id", "object_label", "source_locale", "target_locale"}).
						AddRow(testUnit.ID, "page-1", "Home", "en", "fr"))
			},
			want: testUnit,
		},
		{
			name: "missing",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("FROM translation_units").
					WithArgs(testUnit.ID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newMock(t)
			tt.setup(mock)

			got, err := store.GetUnit(context.Background(), testUnit.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_ListSegments(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectQuery("FROM segments s").
		WithArgs(testUnit.ID).
		WillReturnRows(mock.NewRows([]string{"ord", "ss_id", "ss_locale", "ss_data", "c_id", "c_object_id", "c_path"}).
			AddRow(1, int64(10), "en", "Hello", int64(20), "page-1", "body.heading").
			AddRow(2, int64(11), "en", "Goodbye", int64(21), "page-1", "body.footer"))

	got, err := store.ListSegments(context.Background(), testUnit)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.Segment{
		Order:   1,
		String:  core.SourceString{ID: 10, Locale: "en", Text: "Hello"},
		Context: core.Context{ID: 20, ObjectID: "page-1", Path: "body.heading"},
	}, got[0])
	assert.Equal(t, "body.footer", got[1].Context.Path)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListTranslations(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectQuery("FROM string_translations t").
		WithArgs("page-1", "fr").
		WillReturnRows(mock.NewRows(translationColumns).
			AddRow(int64(5), "fr", "Bonjour", "manual", "XLSX File", "u-1", testTime, false, "",
				int64(10), "en", "Hello", int64(20), "page-1", "body.heading"))

	got, err := store.ListTranslations(context.Background(), testUnit)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, core.ProvenanceManual, got[0].Kind)
	assert.Equal(t, "Hello", got[0].String.Text)
	assert.Equal(t, "body.heading", got[0].Context.Path)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InTxRollsBackOnError(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM source_strings").
		WithArgs("en", "Hello").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.InTx(context.Background(), func(tx core.Tx) error {
		_, err := tx.FindString(context.Background(), "en", "Hello")
		assert.ErrorIs(t, err, core.ErrNotFound)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ImportCreatesTranslation(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM source_strings").
		WithArgs("en", "Hello").
		WillReturnRows(mock.NewRows([]string{"id", "locale", "data"}).AddRow(int64(10), "en", "Hello"))
	mock.ExpectQuery("FROM contexts").
		WithArgs("page-1", "body.heading").
		WillReturnRows(mock.NewRows([]string{"id", "object_id", "path"}).AddRow(int64(20), "page-1", "body.heading"))
	mock.ExpectQuery("FROM segments").
		WithArgs(testUnit.ID, int64(10), int64(20)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM string_translations t .*FOR UPDATE OF t").
		WithArgs(int64(20), "fr", int64(10)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`(?s)INSERT INTO string_translations .*ON CONFLICT \(string_id, context_id, locale\) DO UPDATE`).
		WithArgs(int64(10), int64(20), "fr", "Bonjour", "manual", "XLSX File", "u-1", testTime, false, "").
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(99)))
	mock.ExpectCommit()

	importer := core.NewImporter(store,
		core.WithImporterLogger(slog.New(slog.DiscardHandler)),
		core.WithImporterClock(func() time.Time { return testTime }),
	)
	doc := &core.Document{
		Marker: core.MarkerFromUUID(testUnit.ID),
		UnitID: testUnit.ID,
		Rows:   []core.Row{{Context: "body.heading", Source: "Hello", Translation: "Bonjour"}},
	}

	res, err := importer.Apply(context.Background(), testUnit, doc, core.ImportOptions{
		Actor:    core.Actor{ID: "u-1"},
		ToolName: "XLSX File",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteTranslationsExcept(t *testing.T) {
	tests := []struct {
		name string
		keep []int64
		args []any
	}{
		{"keeps seen ids", []int64{3, 7}, []any{"fr", "page-1", []int64{3, 7}}},
		{"nothing seen", nil, []any{"fr", "page-1"}},
		{"many seen ids bind one array", manyIDs(70000), []any{"fr", "page-1", manyIDs(70000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newMock(t)
			mock.ExpectBegin()
			mock.ExpectExec("DELETE FROM string_translations").
				WithArgs(tt.args...).
				WillReturnResult(pgxmock.NewResult("DELETE", 4))
			mock.ExpectCommit()

			var deleted int64
			err := store.InTx(context.Background(), func(tx core.Tx) error {
				var err error
				deleted, err = tx.DeleteTranslationsExcept(context.Background(), testUnit, tt.keep)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, int64(4), deleted)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func manyIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

func TestStore_DeleteTranslationsExceptUsesArray(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM string_translations WHERE locale = \$1 AND context_id IN \(SELECT id FROM contexts WHERE object_id = \$2\) AND id <> ALL\(\$3\)`).
		WithArgs("fr", "page-1", []int64{3, 7}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx core.Tx) error {
		_, err := tx.DeleteTranslationsExcept(context.Background(), testUnit, []int64{3, 7})
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateTranslationOverwritesConcurrentInsert(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)INSERT INTO string_translations .*ON CONFLICT \(string_id, context_id, locale\) DO UPDATE SET.*data = EXCLUDED.data.*RETURNING id`).
		WithArgs(int64(10), int64(20), "fr", "Salut", "manual", "", "u-2", testTime, false, "").
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(55)))
	mock.ExpectCommit()

	var got core.Translation
	err := store.InTx(context.Background(), func(tx core.Tx) error {
		var err error
		got, err = tx.CreateTranslation(context.Background(), core.Translation{
			String:       core.SourceString{ID: 10},
			Context:      core.Context{ID: 20},
			Locale:       "fr",
			Text:         "Salut",
			Kind:         core.ProvenanceManual,
			TranslatedBy: "u-2",
			UpdatedAt:    testTime,
		})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(55), got.ID, "the existing row's id is returned")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SyncUnitCopiesSegments(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO translation_units").
		WithArgs(testUnit.ID, "page-1", "Home", "en", "fr").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM segments").
		WithArgs(testUnit.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	for i, seg := range []core.SegmentInput{{Path: "body.heading", Text: "Hello"}, {Path: "body.footer", Text: "Goodbye"}} {
		mock.ExpectQuery("INSERT INTO source_strings").
			WithArgs("en", seg.Text).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(10 + i)))
		mock.ExpectQuery("INSERT INTO contexts").
			WithArgs("page-1", seg.Path).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(20 + i)))
	}
	mock.ExpectCopyFrom(pgx.Identifier{"segments"}, []string{"unit_id", "ord", "string_id", "context_id"}).
		WillReturnResult(2)
	mock.ExpectCommit()

	err := store.SyncUnit(context.Background(), testUnit, []core.SegmentInput{
		{Path: "body.heading", Text: "Hello"},
		{Path: "body.footer", Text: "Goodbye"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SyncUnitCopyFailureRollsBack(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO translation_units").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM segments").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("INSERT INTO source_strings").WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery("INSERT INTO contexts").WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(20)))
	mock.ExpectCopyFrom(pgx.Identifier{"segments"}, []string{"unit_id", "ord", "string_id", "context_id"}).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	err := store.SyncUnit(context.Background(), testUnit, []core.SegmentInput{{Path: "body.heading", Text: "Hello"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save segments")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateTranslationMissing(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE string_translations").
		WithArgs(int64(5), "Salut", "manual", "", "", testTime, false, "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx core.Tx) error {
		return tx.UpdateTranslation(context.Background(), core.Translation{
			ID: 5, Text: "Salut", Kind: core.ProvenanceManual, UpdatedAt: testTime,
		})
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordAudit(t *testing.T) {
	mock, store := newMock(t)
	mock.ExpectExec("INSERT INTO interchange_audit").
		WithArgs("import", "medium", testUnit.ID.String(), "u-1", "Ann", "10.0.0.1", "curl", 2, int64(0), 1, "", testTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.RecordAudit(context.Background(), core.AuditEntry{
		Action:       core.ActionImport,
		Severity:     core.SeverityMedium,
		UnitID:       testUnit.ID.String(),
		ActorID:      "u-1",
		ActorName:    "Ann",
		IPAddress:    "10.0.0.1",
		UserAgent:    "curl",
		RowsAffected: 2,
		Warnings:     1,
		CreatedAt:    testTime,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "string_translations_string_id_context_id_locale_key"}, "DB001"},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "segments_string_id_fkey"}, "DB002"},
		{"serialization", &pgconn.PgError{Code: "40001"}, "DB007"},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, "DB006"},
		{"connection", &pgconn.PgError{Code: "08006"}, "DB004"},
		{"unknown", &pgconn.PgError{Code: "XX000"}, "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapPgError(tt.err, "op")
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantCode, core.MapError(err).Code)
		})
	}

	assert.ErrorIs(t, mapPgError(pgx.ErrNoRows, "op"), core.ErrNotFound)
	assert.NoError(t, mapPgError(nil, "op"))
}
