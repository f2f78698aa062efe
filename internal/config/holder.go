package config

import (
	"fmt"
	"sync"
)

// Holder keeps the current Config and supports atomic hot reload from the
// YAML path it was loaded from. Reload re-runs the full hierarchy
// (defaults < YAML < ENV); a failed reload preserves the old config.
type Holder struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
}

// NewHolder wraps an already-loaded Config with its source path.
func NewHolder(cfg *Config, yamlPath string) *Holder {
	return &Holder{cfg: cfg, path: yamlPath}
}

// Get returns the current Config snapshot.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Reload re-loads the config from disk and environment and swaps it in.
// On error the previous config stays active.
func (h *Holder) Reload() error {
	cfg, err := LoadFrom(h.path)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
	return nil
}
