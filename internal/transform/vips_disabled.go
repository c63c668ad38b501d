//go:build !vips

package transform

import (
	"errors"
)

// ErrVipsDisabled is returned when the binary was built without the vips tag.
var ErrVipsDisabled = errors.New("transform: built without libvips support (use -tags vips)")

// VipsEngine is unavailable in this build.
type VipsEngine struct{ *Native }

// NewVips reports that libvips support was not compiled in.
func NewVips(VipsConfig) (*VipsEngine, error) {
	return nil, newError(KindEngineUnavailable, "", ErrVipsDisabled)
}

// Shutdown is a no-op.
func (v *VipsEngine) Shutdown() {}
