package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stylestudio/internal/styles"
)

// ScriptConfig maps style names to worker scripts. Each script is invoked as
// `<interpreter> <script> <input> <output>` and must exit 0 after writing the
// output file.
type ScriptConfig struct {
	Interpreter string            `yaml:"interpreter"`
	Dir         string            `yaml:"dir"`
	Styles      map[string]string `yaml:"styles"`
	Formats     []string          `yaml:"formats"`
}

// LoadScriptConfig reads a YAML script map from path.
func LoadScriptConfig(path string) (*ScriptConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, newError(KindEngineUnavailable, "", errors.New("transform: script config path is required"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(KindEngineUnavailable, "", fmt.Errorf("read script config: %w", err))
	}
	return ParseScriptConfig(data, filepath.Dir(path))
}

// ParseScriptConfig decodes a YAML script map. Relative script directories
// resolve against baseDir.
func ParseScriptConfig(data []byte, baseDir string) (*ScriptConfig, error) {
	var cfg ScriptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("transform: parse script config: %w", err)
	}
	if cfg.Interpreter == "" {
		cfg.Interpreter = "python3"
	}
	if cfg.Dir == "" {
		cfg.Dir = baseDir
	} else if !filepath.IsAbs(cfg.Dir) {
		cfg.Dir = filepath.Join(baseDir, cfg.Dir)
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
	for name := range cfg.Styles {
		if !styles.Known(name) {
			return nil, fmt.Errorf("transform: script config names unknown style %q", name)
		}
	}
	return &cfg, nil
}

// workerWaitDelay bounds how long Run waits for output pipes after the
// worker group has been killed.
const workerWaitDelay = 2 * time.Second

// Script runs each style in a separate worker process.
type Script struct {
	cfg ScriptConfig
}

// NewScript returns a Script engine for cfg.
func NewScript(cfg *ScriptConfig) *Script {
	return &Script{cfg: *cfg}
}

func (s *Script) Name() string { return EngineExec }

func (s *Script) CanEncode(ext string) bool {
	ext = normalizeExt(ext)
	for _, f := range s.cfg.Formats {
		if normalizeExt(f) == ext {
			return true
		}
	}
	return false
}

func (s *Script) Apply(ctx context.Context, def styles.Definition, inputPath, outputPath string) error {
	script, ok := s.cfg.Styles[def.Name]
	if !ok {
		return newError(KindEngineUnavailable, "", fmt.Errorf("no worker script for style %q", def.Name))
	}
	if !filepath.IsAbs(script) {
		script = filepath.Join(s.cfg.Dir, script)
	}
	if _, err := os.Stat(script); err != nil {
		return newError(KindEngineUnavailable, "", err)
	}
	interpreter, err := exec.LookPath(s.cfg.Interpreter)
	if err != nil {
		return newError(KindEngineUnavailable, "", err)
	}

	cmd := exec.CommandContext(ctx, interpreter, script, inputPath, outputPath)
	cmd.Dir = s.cfg.Dir
	cmd.WaitDelay = workerWaitDelay
	startGroup(cmd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if ctx.Err() != nil {
		return &ExecutionError{
			Kind:        KindTimeout,
			Step:        filepath.Base(script),
			ExitCode:    exitCode(cmd.ProcessState),
			Diagnostics: tail(stderr.String()),
			Err:         ctx.Err(),
		}
	}
	if err != nil {
		ee := &ExecutionError{
			Kind:        KindOperationFailed,
			Step:        filepath.Base(script),
			Diagnostics: tail(stderr.String()),
			Err:         err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ee.ExitCode = exitCode(exitErr.ProcessState)
		} else {
			ee.Kind = KindEngineUnavailable
		}
		return ee
	}
	return nil
}

// tail keeps the last 2 KiB of worker output.
func tail(s string) string {
	const limit = 2048
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
