package transform

import (
	"fmt"
	"strings"
)

// Engine names accepted by NewEngine.
const (
	EngineNative = "native"
	EngineVips   = "vips"
	EngineExec   = "exec"
)

// EngineConfig selects and configures an engine.
type EngineConfig struct {
	Backend      string
	JPEGQuality  int
	VipsCache    int
	VipsWorkers  int
	ScriptConfig string
}

// NewEngine builds the engine named by cfg.Backend. The returned close
// function releases engine resources and is never nil.
func NewEngine(cfg EngineConfig) (Engine, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", EngineNative:
		n := NewNative()
		if cfg.JPEGQuality > 0 {
			n.JPEGQuality = cfg.JPEGQuality
		}
		return n, func() {}, nil
	case EngineVips:
		v, err := NewVips(VipsConfig{
			JPEGQuality:  cfg.JPEGQuality,
			MaxCacheSize: cfg.VipsCache,
			Workers:      cfg.VipsWorkers,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return v, v.Shutdown, nil
	case EngineExec:
		sc, err := LoadScriptConfig(cfg.ScriptConfig)
		if err != nil {
			return nil, func() {}, err
		}
		return NewScript(sc), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("transform: unknown backend %q", cfg.Backend)
	}
}

// VipsConfig configures the libvips engine.
type VipsConfig struct {
	JPEGQuality  int
	MaxCacheSize int
	Workers      int
}
