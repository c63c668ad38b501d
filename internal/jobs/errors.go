package jobs

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a job ended in StateFailed.
type FailureKind string

const (
	FailBadStyle          FailureKind = "bad_style"
	FailBadUpload         FailureKind = "bad_upload"
	FailTransform         FailureKind = "transform_error"
	FailLedgerWriteFailed FailureKind = "ledger_write_failed"
	FailInternal          FailureKind = "internal"
)

// Failure is returned by Transform for every unsuccessful job.
type Failure struct {
	Kind FailureKind
	From State
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("job failed in %s (%s): %v", f.From, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// FailureOf extracts the Failure from err.
func FailureOf(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
