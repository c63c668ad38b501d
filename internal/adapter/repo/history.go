package repo

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"stylestudio/internal/domain"
	"stylestudio/internal/styles"
)

// prepareRecord validates rec before insert and assigns an id if missing.
func prepareRecord(rec *domain.TransformationRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", domain.ErrInvalidRecord)
	}
	if strings.TrimSpace(rec.OwnerID) == "" {
		return fmt.Errorf("%w: owner is required", domain.ErrInvalidRecord)
	}
	if rec.SourcePath == "" || rec.ResultPath == "" {
		return fmt.Errorf("%w: source and result paths are required", domain.ErrInvalidRecord)
	}
	if !styles.Known(rec.StyleName) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStyle, rec.StyleName)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return fmt.Errorf("%w: id must be a uuid", domain.ErrInvalidRecord)
	}
	return nil
}

// validID reports whether id can name a record. Anything else is NotFound.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
