// Package transform runs style pipelines against files on disk. Engines do
// the pixel work; Executor wraps them with input and output checks, a
// concurrency limit and a timeout.
package transform

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"

	"stylestudio/internal/styles"
)

// DefaultTimeout bounds a single run.
const DefaultTimeout = 60 * time.Second

// DefaultMaxPixels caps width*height of an input image.
const DefaultMaxPixels = 50_000_000

// Engine applies a style to inputPath and writes outputPath. Implementations
// may assume the input has been checked.
type Engine interface {
	Name() string
	CanEncode(ext string) bool
	Apply(ctx context.Context, def styles.Definition, inputPath, outputPath string) error
}

// Options configures an Executor.
type Options struct {
	Timeout     time.Duration
	Concurrency int
	MaxPixels   int
}

// Executor serializes access to an Engine and enforces the run contract.
type Executor struct {
	engine    Engine
	sem       *semaphore.Weighted
	timeout   time.Duration
	maxPixels int
	logger    zerolog.Logger
}

// NewExecutor wraps engine. Zero options select DefaultTimeout and one slot per CPU.
func NewExecutor(engine Engine, opts Options, logger zerolog.Logger) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &Executor{
		engine:    engine,
		sem:       semaphore.NewWeighted(int64(opts.Concurrency)),
		timeout:   opts.Timeout,
		maxPixels: opts.MaxPixels,
		logger:    logger.With().Str("engine", engine.Name()).Logger(),
	}
}

// Engine returns the wrapped engine name.
func (e *Executor) Engine() string { return e.engine.Name() }

// CanEncode reports whether the engine can write files with extension ext.
func (e *Executor) CanEncode(ext string) bool {
	return e.engine.CanEncode(normalizeExt(ext))
}

// Run applies def to inputPath and writes outputPath. On failure no file is
// left at outputPath and the returned error is an *ExecutionError.
func (e *Executor) Run(ctx context.Context, def styles.Definition, inputPath, outputPath string) error {
	if err := checkInput(inputPath, e.maxPixels); err != nil {
		return err
	}
	for _, op := range def.Steps {
		if err := op.Validate(); err != nil {
			return newError(KindOperationFailed, string(op.Kind()), err)
		}
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return newError(KindTimeout, "queue", err)
	}
	defer e.sem.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	err := e.engine.Apply(runCtx, def, inputPath, outputPath)
	if err == nil && runCtx.Err() != nil {
		err = runCtx.Err()
	}
	if err != nil {
		e.discard(outputPath)
		err = classify(runCtx, err)
		e.logger.Warn().Err(err).Str("style", def.Name).Dur("elapsed", time.Since(start)).Msg("transform failed")
		return err
	}

	if err := verifyOutput(outputPath); err != nil {
		e.discard(outputPath)
		return err
	}
	e.logger.Debug().Str("style", def.Name).Dur("elapsed", time.Since(start)).Msg("transform done")
	return nil
}

func classify(ctx context.Context, err error) error {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		if ee.Kind != KindTimeout && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			ee.Kind = KindTimeout
		}
		return ee
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(KindTimeout, "", err)
	}
	if errors.Is(err, context.Canceled) {
		return newError(KindTimeout, "", err)
	}
	return newError(KindOperationFailed, "", err)
}

// checkInput reads only the image header, so oversized images are refused
// before any engine decodes pixels.
func checkInput(path string, maxPixels int) error {
	info, err := os.Stat(path)
	if err != nil {
		return newError(KindInputMissing, "", err)
	}
	if !info.Mode().IsRegular() {
		return newError(KindInputMissing, "", fmt.Errorf("%s is not a regular file", path))
	}
	if info.Size() == 0 {
		return newError(KindInputMissing, "", fmt.Errorf("%s is empty", path))
	}
	f, err := os.Open(path)
	if err != nil {
		return newError(KindInputMissing, "", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return newError(KindDecodeFailed, "decode", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return newError(KindDecodeFailed, "decode", fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height))
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return newError(KindDecodeFailed, "decode",
			fmt.Errorf("%dx%d exceeds the %d pixel limit", cfg.Width, cfg.Height, maxPixels))
	}
	return nil
}

func verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return newError(KindOutputNotProduced, "", err)
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return newError(KindOutputNotProduced, "", fmt.Errorf("%s is empty", path))
	}
	return nil
}

func (e *Executor) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.logger.Error().Err(err).Str("path", path).Msg("remove partial output")
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func extOf(path string) string {
	return normalizeExt(filepath.Ext(path))
}
