package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylestudio/internal/domain"
	"stylestudio/internal/infra"
	"stylestudio/internal/styles"
)

func newSQLiteLedger(t *testing.T) *HistoryRepositorySQLite {
	t.Helper()
	db, err := infra.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger, err := NewHistoryRepositorySQLite(context.Background(), db)
	require.NoError(t, err)

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ledger.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return ledger
}

func record(owner, style string, n int) *domain.TransformationRecord {
	return &domain.TransformationRecord{
		OwnerID:    owner,
		SourcePath: fmt.Sprintf("%d-src.jpg", n),
		ResultPath: fmt.Sprintf("transformed-%d-src.jpg", n),
		StyleName:  style,
	}
}

func TestSQLiteAppendAndGet(t *testing.T) {
	ctx := context.Background()
	ledger := newSQLiteLedger(t)

	rec := record("owner-a", styles.ComicStyle, 1)
	id, err := ledger.Append(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := ledger.GetFor(ctx, "owner-a", id)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.OwnerID, got.OwnerID)
	assert.Equal(t, rec.SourcePath, got.SourcePath)
	assert.Equal(t, rec.ResultPath, got.ResultPath)
	assert.Equal(t, styles.ComicStyle, got.StyleName)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestSQLiteAppendRejectsUnknownStyle(t *testing.T) {
	ledger := newSQLiteLedger(t)
	_, err := ledger.Append(context.Background(), record("owner-a", "Pixel Art", 1))
	assert.True(t, errors.Is(err, domain.ErrUnknownStyle))

	list, err := ledger.ListFor(context.Background(), "owner-a", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLiteListNewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	ledger := newSQLiteLedger(t)
	for i := 0; i < 55; i++ {
		_, err := ledger.Append(ctx, record("owner-a", styles.AnimeStyle, i))
		require.NoError(t, err)
	}

	list, err := ledger.ListFor(ctx, "owner-a", 500)
	require.NoError(t, err)
	require.Len(t, list, domain.DefaultHistoryLimit)
	assert.Equal(t, "54-src.jpg", list[0].SourcePath)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.After(list[i].CreatedAt))
	}

	list, err = ledger.ListFor(ctx, "owner-a", 3)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	total, err := ledger.CountFor(ctx, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, 55, total)
	total, err = ledger.CountFor(ctx, "owner-b")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSQLiteOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	ledger := newSQLiteLedger(t)
	idA, err := ledger.Append(ctx, record("owner-a", styles.OilPainting, 1))
	require.NoError(t, err)
	_, err = ledger.Append(ctx, record("owner-b", styles.OilPainting, 2))
	require.NoError(t, err)

	listB, err := ledger.ListFor(ctx, "owner-b", 0)
	require.NoError(t, err)
	require.Len(t, listB, 1)
	assert.Equal(t, "owner-b", listB[0].OwnerID)

	_, err = ledger.GetFor(ctx, "owner-b", idA)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = ledger.DeleteFor(ctx, "owner-b", idA)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ledger.GetFor(ctx, "owner-a", idA)
	assert.NoError(t, err, "foreign delete must not remove the record")
}

func TestSQLiteDeleteTwice(t *testing.T) {
	ctx := context.Background()
	ledger := newSQLiteLedger(t)
	id, err := ledger.Append(ctx, record("owner-a", styles.PencilSketch, 1))
	require.NoError(t, err)

	deleted, err := ledger.DeleteFor(ctx, "owner-a", id)
	require.NoError(t, err)
	assert.Equal(t, "transformed-1-src.jpg", deleted.ResultPath)

	_, err = ledger.DeleteFor(ctx, "owner-a", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteMalformedIDIsNotFound(t *testing.T) {
	ledger := newSQLiteLedger(t)
	_, err := ledger.GetFor(context.Background(), "owner-a", "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteSchemaIsIdempotent(t *testing.T) {
	db, err := infra.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 2; i++ {
		_, err := NewHistoryRepositorySQLite(context.Background(), db)
		require.NoError(t, err)
	}
	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, sqliteSchemaVersion, version)
}

func TestOpenLedgerSQLite(t *testing.T) {
	cfg := &infra.Config{LedgerDriver: infra.LedgerSQLite, SQLitePath: filepath.Join(t.TempDir(), "ledger.db")}
	require.NoError(t, Migrate(context.Background(), cfg))

	ledger, closeFn, err := OpenLedger(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()

	_, err = ledger.ListFor(context.Background(), "nobody", 0)
	require.NoError(t, err)
}

func TestOpenLedgerUnknownDriver(t *testing.T) {
	_, closeFn, err := OpenLedger(context.Background(), &infra.Config{LedgerDriver: "mongo"}, zerolog.Nop())
	require.Error(t, err)
	closeFn()
}
