package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stylestudio/internal/domain"
)

// HistoryRepositorySQLite implements domain.HistoryLedger on SQLite for
// single node deployments. Timestamps are stored as Unix microseconds.
type HistoryRepositorySQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepositorySQLite applies the schema to db and returns a ledger.
func NewHistoryRepositorySQLite(ctx context.Context, db *sql.DB) (*HistoryRepositorySQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return nil, fmt.Errorf("read user_version: %w", err)
	}
	if version < sqliteSchemaVersion {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
			return nil, fmt.Errorf("set user_version: %w", err)
		}
	}
	return &HistoryRepositorySQLite{db: db, now: time.Now}, nil
}

const sqliteColumns = `id, owner_id, source_path, result_path, style, created_at`

func (r *HistoryRepositorySQLite) Append(ctx context.Context, rec *domain.TransformationRecord) (string, error) {
	if err := prepareRecord(rec); err != nil {
		return "", err
	}
	createdAt := r.now().UTC().Truncate(time.Microsecond)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transformation_history (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.SourcePath, rec.ResultPath, rec.StyleName, createdAt.UnixMicro())
	if err != nil {
		return "", fmt.Errorf("insert history: %w", err)
	}
	rec.CreatedAt = createdAt
	return rec.ID, nil
}

func (r *HistoryRepositorySQLite) ListFor(ctx context.Context, ownerID string, limit int) ([]domain.TransformationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM transformation_history
		 WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		ownerID, domain.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.TransformationRecord, 0)
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

func (r *HistoryRepositorySQLite) CountFor(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transformation_history WHERE owner_id = ?`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func (r *HistoryRepositorySQLite) GetFor(ctx context.Context, ownerID, id string) (*domain.TransformationRecord, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM transformation_history WHERE id = ? AND owner_id = ?`, id, ownerID)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

func (r *HistoryRepositorySQLite) DeleteFor(ctx context.Context, ownerID, id string) (*domain.TransformationRecord, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM transformation_history WHERE id = ? AND owner_id = ?`, id, ownerID)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transformation_history WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return nil, fmt.Errorf("delete history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (*domain.TransformationRecord, error) {
	var rec domain.TransformationRecord
	var micros int64
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.SourcePath, &rec.ResultPath, &rec.StyleName, &micros); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMicro(micros).UTC()
	return &rec, nil
}

var _ domain.HistoryLedger = (*HistoryRepositorySQLite)(nil)
