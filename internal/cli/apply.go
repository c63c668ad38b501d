package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stylestudio/internal/styles"
	"stylestudio/internal/transform"
)

type applyOptions struct {
	style   string
	backend string
	scripts string
	quality int
	timeout time.Duration
}

type applyResult struct {
	Style      string `json:"style" yaml:"style"`
	Engine     string `json:"engine" yaml:"engine"`
	Input      string `json:"input" yaml:"input"`
	Output     string `json:"output" yaml:"output"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

// NewApplyCommand runs one style on a local file, bypassing the ledger.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:   "apply <input> <output>",
		Short: "Apply a style to a local image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, rootOpts, opts, args[0], args[1])
		},
	}
	cmd.Flags().StringVarP(&opts.style, "style", "s", "", "style name (see `stylectl styles`)")
	cmd.Flags().StringVar(&opts.backend, "backend", transform.EngineNative, "engine backend (native|vips|exec)")
	cmd.Flags().StringVar(&opts.scripts, "scripts", "", "script map for the exec backend")
	cmd.Flags().IntVar(&opts.quality, "quality", 90, "JPEG quality")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "per-run timeout")
	_ = cmd.MarkFlagRequired("style")
	return cmd
}

func runApply(cmd *cobra.Command, rootOpts *RootOptions, opts *applyOptions, input, output string) error {
	out := newFormatter(rootOpts, cmd)
	def, err := styles.Resolve(opts.style)
	if err != nil {
		return WrapExitError(ExitCommandError, "unknown style", err)
	}
	engine, closeEngine, err := transform.NewEngine(transform.EngineConfig{
		Backend:      opts.backend,
		JPEGQuality:  opts.quality,
		ScriptConfig: opts.scripts,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "start engine", err)
	}
	defer closeEngine()

	exec := transform.NewExecutor(engine, transform.Options{Timeout: opts.timeout, Concurrency: 1}, zerolog.Nop())
	out.VerboseLog("applying %s with %s engine", def.Name, exec.Engine())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if err := exec.Run(ctx, def, input, output); err != nil {
		return WrapExitError(ExitFailure, "transformation failed", err)
	}
	res := applyResult{
		Style:      def.Name,
		Engine:     exec.Engine(),
		Input:      input,
		Output:     output,
		DurationMS: time.Since(start).Milliseconds(),
	}
	return out.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "%s -> %s (%s, %s engine, %dms)\n", res.Input, res.Output, res.Style, res.Engine, res.DurationMS)
	})
}
