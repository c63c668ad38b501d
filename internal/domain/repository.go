package domain

import "context"

// HistoryLedger persists transformation records. Every read and delete is
// scoped to the owner; a record owned by someone else is reported as
// ErrNotFound.
type HistoryLedger interface {
	Append(ctx context.Context, rec *TransformationRecord) (string, error)
	ListFor(ctx context.Context, ownerID string, limit int) ([]TransformationRecord, error)
	GetFor(ctx context.Context, ownerID, id string) (*TransformationRecord, error)
	DeleteFor(ctx context.Context, ownerID, id string) (*TransformationRecord, error)
	CountFor(ctx context.Context, ownerID string) (int, error)
}
