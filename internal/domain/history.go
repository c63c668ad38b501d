package domain

import "time"

const (
	// DefaultHistoryLimit caps history listings.
	DefaultHistoryLimit = 50
)

// TransformationRecord is a completed transformation owned by a single user.
// SourcePath and ResultPath are filenames relative to the uploads and outputs
// directories respectively.
type TransformationRecord struct {
	ID         string
	OwnerID    string
	SourcePath string
	ResultPath string
	StyleName  string
	CreatedAt  time.Time
}

// ClampHistoryLimit normalizes a requested listing size into (0, DefaultHistoryLimit].
func ClampHistoryLimit(limit int) int {
	if limit <= 0 || limit > DefaultHistoryLimit {
		return DefaultHistoryLimit
	}
	return limit
}
