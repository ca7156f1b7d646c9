//go:build integration

package postgres

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/locsheet/internal/core"
)

// setupTestDB starts PostgreSQL in a container and applies the embedded
// migrations.
func setupTestDB(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	require.NoError(t, MigrateUp(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		container.Terminate(ctx)
	})
	return pool, dsn
}

func TestStore_Integration(t *testing.T) {
	pool, dsn := setupTestDB(t)
	store := New(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	unit := core.TranslationUnit{
		ID:           uuid.New(),
		ObjectID:     "page-42",
		ObjectLabel:  "Pricing",
		SourceLocale: "en",
		TargetLocale: "de",
	}
	require.NoError(t, store.SyncUnit(ctx, unit, []core.SegmentInput{
		{Path: "hero.title", Text: "Simple pricing"},
		{Path: "hero.subtitle", Text: "No hidden fees"},
	}))

	svc := core.NewService(store,
		core.WithAuthorizer(core.AllowAll),
		core.WithLogger(slog.New(slog.DiscardHandler)),
	)
	actor := core.Actor{ID: "u-1", Name: "Editor"}

	t.Run("migration version", func(t *testing.T) {
		version, dirty, ok, err := MigrationVersion(dsn)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, dirty)
		assert.Equal(t, uint(1), version)
	})

	t.Run("export then import", func(t *testing.T) {
		file, err := svc.ExportUnit(ctx, unit.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, 2, file.Rows)

		x, err := excelize.OpenReader(bytes.NewReader(file.Data))
		require.NoError(t, err)
		sheet := x.GetSheetName(0)
		require.NoError(t, x.SetCellValue(sheet, "C4", "Einfache Preise"))
		buf, err := x.WriteToBuffer()
		require.NoError(t, err)
		x.Close()

		out, err := svc.ImportUnit(ctx, unit.ID, bytes.NewReader(buf.Bytes()), actor, core.ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, core.StatusImported, out.Status)
		assert.Equal(t, 1, out.Created)

		translations, err := store.ListTranslations(ctx, unit)
		require.NoError(t, err)
		require.Len(t, translations, 1)
		assert.Equal(t, "Einfache Preise", translations[0].Text)
		assert.Equal(t, "hero.title", translations[0].Context.Path)
		assert.Equal(t, core.DefaultToolName, translations[0].ToolName)
	})

	t.Run("obsolete translation survives resync", func(t *testing.T) {
		require.NoError(t, store.SyncUnit(ctx, unit, []core.SegmentInput{
			{Path: "hero.subtitle", Text: "No hidden fees"},
		}))

		segments, err := store.ListSegments(ctx, unit)
		require.NoError(t, err)
		require.Len(t, segments, 1)

		file, err := svc.ExportUnit(ctx, unit.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, 1, file.Obsolete)
	})

	t.Run("delete unseen", func(t *testing.T) {
		file, err := svc.ExportUnit(ctx, unit.ID, actor)
		require.NoError(t, err)

		// Drop the obsolete row before uploading.
		x, err := excelize.OpenReader(bytes.NewReader(file.Data))
		require.NoError(t, err)
		sheet := x.GetSheetName(0)
		require.NoError(t, x.RemoveRow(sheet, 5))
		buf, err := x.WriteToBuffer()
		require.NoError(t, err)
		x.Close()

		out, err := svc.ImportUnit(ctx, unit.ID, bytes.NewReader(buf.Bytes()), actor, core.ImportOptions{DeleteUnseen: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), out.Deleted)

		translations, err := store.ListTranslations(ctx, unit)
		require.NoError(t, err)
		assert.Empty(t, translations)
	})

	t.Run("large unit beyond bind parameter limit", func(t *testing.T) {
		big := unit
		big.ID = uuid.New()
		big.TargetLocale = "nl"
		segments := make([]core.SegmentInput, 20000)
		for i := range segments {
			segments[i] = core.SegmentInput{Path: fmt.Sprintf("list.item[%d]", i), Text: fmt.Sprintf("Item %d", i)}
		}
		require.NoError(t, store.SyncUnit(ctx, big, segments))

		listed, err := store.ListSegments(ctx, big)
		require.NoError(t, err)
		assert.Len(t, listed, len(segments))

		keep := make([]int64, 70000)
		for i := range keep {
			keep[i] = int64(i + 1)
		}
		err = store.InTx(ctx, func(tx core.Tx) error {
			_, err := tx.DeleteTranslationsExcept(ctx, big, keep)
			return err
		})
		require.NoError(t, err)
	})

	t.Run("foreign workbook", func(t *testing.T) {
		other := unit
		other.ID = uuid.New()
		other.TargetLocale = "it"
		require.NoError(t, store.SyncUnit(ctx, other, nil))

		file, err := svc.ExportUnit(ctx, other.ID, actor)
		require.NoError(t, err)

		out, err := svc.ImportUnit(ctx, unit.ID, bytes.NewReader(file.Data), actor, core.ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, core.StatusWrongUnit, out.Status)
	})
}
