package pipeline

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/searchql/internal/compiler"
	"github.com/roach88/searchql/internal/ir"
)

// ConfigHolder publishes the active search configuration.
//
// Thread-safety: Load is lock-free and safe from any goroutine. A config
// returned by Load is never mutated; Swap replaces the pointer.
type ConfigHolder struct {
	current atomic.Pointer[ir.SearchConfig]
}

// NewConfigHolder creates a holder. A nil cfg falls back to
// ir.DefaultSearchConfig.
func NewConfigHolder(cfg *ir.SearchConfig) *ConfigHolder {
	if cfg == nil {
		cfg = ir.DefaultSearchConfig()
	}
	h := &ConfigHolder{}
	h.current.Store(cfg)
	return h
}

// Load returns the active configuration.
func (h *ConfigHolder) Load() *ir.SearchConfig {
	return h.current.Load()
}

// Swap installs cfg and returns the previous configuration.
func (h *ConfigHolder) Swap(cfg *ir.SearchConfig) (*ir.SearchConfig, error) {
	if cfg == nil {
		return nil, errors.New("swap: nil search config")
	}
	return h.current.Swap(cfg), nil
}

// Reload compiles the CUE configuration at path and swaps it in. On error
// the active configuration is left untouched.
func (h *ConfigHolder) Reload(path string) error {
	cfg, err := compiler.LoadConfig(path)
	if err != nil {
		return err
	}
	if _, err := h.Swap(cfg); err != nil {
		return err
	}
	slog.Info("search config reloaded", "path", path)
	return nil
}
