package transform

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"stylestudio/internal/raster"
	"stylestudio/internal/styles"
)

// DefaultJPEGQuality is used when writing JPEG output.
const DefaultJPEGQuality = 90

// Native runs pipelines in process with pure Go image code. It decodes
// JPEG, PNG and WebP and encodes JPEG and PNG. Sharpen uses only Sigma;
// the M1/M2 gains are honoured by the vips engine alone.
type Native struct {
	JPEGQuality int
}

// NewNative returns a Native engine with default settings.
func NewNative() *Native {
	return &Native{JPEGQuality: DefaultJPEGQuality}
}

func (n *Native) Name() string { return "native" }

func (n *Native) CanEncode(ext string) bool {
	switch normalizeExt(ext) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func (n *Native) Apply(ctx context.Context, def styles.Definition, inputPath, outputPath string) error {
	if !n.CanEncode(extOf(outputPath)) {
		return newError(KindOperationFailed, "encode", fmt.Errorf("unsupported output format %q", extOf(outputPath)))
	}
	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
		if err != nil {
			done <- result{err: newError(KindDecodeFailed, "decode", err)}
			return
		}
		out, err := applySteps(ctx, img, def.Steps)
		done <- result{img: out, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return newError(KindTimeout, "", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return res.err
	}
	if err := ctx.Err(); err != nil {
		return newError(KindTimeout, "", err)
	}
	return n.save(res.img, outputPath)
}

func (n *Native) save(img image.Image, outputPath string) error {
	quality := n.JPEGQuality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	format, err := imaging.FormatFromFilename(outputPath)
	if err != nil {
		return newError(KindOperationFailed, "encode", err)
	}
	f, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return newError(KindOperationFailed, "encode", err)
	}
	encErr := imaging.Encode(f, img, format, imaging.JPEGQuality(quality))
	closeErr := f.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		return newError(KindOperationFailed, "encode", err)
	}
	return nil
}

func applySteps(ctx context.Context, img image.Image, steps []styles.Operation) (image.Image, error) {
	for i, op := range steps {
		if err := ctx.Err(); err != nil {
			return nil, newError(KindTimeout, stepLabel(i, op), err)
		}
		next, err := applyStep(img, op)
		if err != nil {
			return nil, newError(KindOperationFailed, stepLabel(i, op), err)
		}
		img = next
	}
	return img, nil
}

func applyStep(img image.Image, op styles.Operation) (image.Image, error) {
	switch o := op.(type) {
	case styles.Grayscale:
		return imaging.Grayscale(img), nil
	case styles.Normalize:
		return raster.Normalize(img), nil
	case styles.Sharpen:
		return imaging.Sharpen(img, o.Sigma), nil
	case styles.Linear:
		return raster.Linear(img, o.Slope, o.Intercept), nil
	case styles.Negate:
		return imaging.Invert(img), nil
	case styles.Blur:
		return imaging.Blur(img, o.Sigma), nil
	case styles.Threshold:
		return raster.Threshold(img, o.Level), nil
	case styles.Median:
		return raster.Median(img, o.Size), nil
	case styles.Modulate:
		return raster.Modulate(img, o.Brightness, o.Saturation, o.Hue), nil
	default:
		return nil, fmt.Errorf("unsupported operation %T", op)
	}
}

func stepLabel(i int, op styles.Operation) string {
	return fmt.Sprintf("%d:%s", i, op.Kind())
}
