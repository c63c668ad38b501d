// Package intake validates uploaded images and stages them in the uploads
// directory.
package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"stylestudio/internal/domain"
	"stylestudio/internal/storage"
)

// DefaultMaxBytes is the largest accepted upload.
const DefaultMaxBytes int64 = 10 << 20

// Reason explains why an upload was rejected.
type Reason string

const (
	ReasonTooLarge        Reason = "too_large"
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonEmpty           Reason = "empty"
)

// Error is returned for uploads that fail validation. Nothing has been
// written when it is returned.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "upload rejected: " + string(e.Reason)
	}
	return fmt.Sprintf("upload rejected: %s: %s", e.Reason, e.Detail)
}

// IsReason reports whether err is an intake Error with the given reason.
func IsReason(err error, reason Reason) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Reason == reason
}

var allowedExt = map[string]domain.ImageKind{
	".jpg":  domain.ImageKindJPEG,
	".jpeg": domain.ImageKindJPEG,
	".png":  domain.ImageKindPNG,
	".webp": domain.ImageKindWebP,
}

var allowedMIME = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

// Intake stages uploads in a FileStore.
type Intake struct {
	store    *storage.FileStore
	maxBytes int64
	now      func() time.Time
	suffix   func() int64
}

// New returns an Intake writing to store. maxBytes <= 0 selects DefaultMaxBytes.
func New(store *storage.FileStore, maxBytes int64) *Intake {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Intake{
		store:    store,
		maxBytes: maxBytes,
		now:      time.Now,
		suffix:   func() int64 { return rand.Int64N(1_000_000_000) },
	}
}

// MaxBytes returns the configured size limit.
func (i *Intake) MaxBytes() int64 { return i.maxBytes }

// Accept validates and stages an upload. Size is checked first, then the
// declared extension and MIME type, then the content signature.
func (i *Intake) Accept(ctx context.Context, r io.Reader, filename, mimeType string) (*domain.UploadedAsset, error) {
	data, err := io.ReadAll(io.LimitReader(r, i.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("intake: read upload: %w", err)
	}
	if int64(len(data)) > i.maxBytes {
		return nil, &Error{Reason: ReasonTooLarge, Detail: fmt.Sprintf("limit is %d bytes", i.maxBytes)}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := allowedExt[ext]
	if !ok {
		return nil, &Error{Reason: ReasonUnsupportedType, Detail: fmt.Sprintf("extension %q", ext)}
	}
	if !mimeAllowed(mimeType) {
		return nil, &Error{Reason: ReasonUnsupportedType, Detail: fmt.Sprintf("content type %q", mimeType)}
	}
	if len(data) == 0 {
		return nil, &Error{Reason: ReasonEmpty}
	}
	if sniffed := DetectKind(data); sniffed == domain.ImageKindUnknown {
		return nil, &Error{Reason: ReasonUnsupportedType, Detail: "content is not a supported image"}
	}

	name := i.name(ext)
	path, err := i.store.Create(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("intake: stage upload: %w", err)
	}
	return &domain.UploadedAsset{
		StoragePath:      path,
		Filename:         name,
		OriginalFilename: filepath.Base(filename),
		SizeBytes:        int64(len(data)),
		Kind:             kind,
	}, nil
}

// Remove deletes a staged upload. Removing twice is not an error.
func (i *Intake) Remove(asset *domain.UploadedAsset) error {
	if asset == nil {
		return nil
	}
	return i.store.Remove(asset.Filename)
}

func (i *Intake) name(ext string) string {
	return fmt.Sprintf("%d-%d%s", i.now().UnixMilli(), i.suffix(), ext)
}

func mimeAllowed(value string) bool {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	_, ok := allowedMIME[strings.ToLower(mediaType)]
	return ok
}

// DetectKind sniffs the leading bytes of data.
func DetectKind(data []byte) domain.ImageKind {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return domain.ImageKindJPEG
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}):
		return domain.ImageKindPNG
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return domain.ImageKindWebP
	}
	return domain.ImageKindUnknown
}
