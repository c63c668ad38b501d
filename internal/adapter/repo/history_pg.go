package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stylestudio/internal/domain"
	"stylestudio/internal/infra"
	"stylestudio/internal/sqlinline"
)

// HistoryRepositoryPG implements domain.HistoryLedger on PostgreSQL.
type HistoryRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewHistoryRepositoryPG builds a ledger over the marker-checked executor.
func NewHistoryRepositoryPG(sql infra.SQLExecutor) *HistoryRepositoryPG {
	return &HistoryRepositoryPG{sql: sql}
}

// Append inserts rec and fills in its id and creation time.
func (r *HistoryRepositoryPG) Append(ctx context.Context, rec *domain.TransformationRecord) (string, error) {
	if err := prepareRecord(rec); err != nil {
		return "", err
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertHistory, rec.ID, rec.OwnerID, rec.SourcePath, rec.ResultPath, rec.StyleName)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return "", fmt.Errorf("insert history: %w", err)
	}
	return rec.ID, nil
}

// ListFor returns the owner's newest records first.
func (r *HistoryRepositoryPG) ListFor(ctx context.Context, ownerID string, limit int) ([]domain.TransformationRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListHistoryByOwner, ownerID, domain.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.TransformationRecord, 0)
	for rows.Next() {
		var rec domain.TransformationRecord
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.SourcePath, &rec.ResultPath, &rec.StyleName, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// GetFor loads one record owned by ownerID.
func (r *HistoryRepositoryPG) GetFor(ctx context.Context, ownerID, id string) (*domain.TransformationRecord, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return scanRecord(r.sql.QueryRow(ctx, sqlinline.QSelectHistoryForOwner, id, ownerID))
}

// DeleteFor removes one record owned by ownerID and returns it.
func (r *HistoryRepositoryPG) DeleteFor(ctx context.Context, ownerID, id string) (*domain.TransformationRecord, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return scanRecord(r.sql.QueryRow(ctx, sqlinline.QDeleteHistoryForOwner, id, ownerID))
}

// CountFor returns how many records ownerID has.
func (r *HistoryRepositoryPG) CountFor(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountHistoryByOwner, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func scanRecord(row pgx.Row) (*domain.TransformationRecord, error) {
	var rec domain.TransformationRecord
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.SourcePath, &rec.ResultPath, &rec.StyleName, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

var _ domain.HistoryLedger = (*HistoryRepositoryPG)(nil)
