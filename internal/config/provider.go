package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Provider is the §6 "settings provider" interface the core consumes:
// a flat key/value store with a per-key mutex (coarser locking is
// explicitly acceptable per §5 since settings are rarely updated). The
// real on-disk KV store is a non-goal beyond this interface;
// MemoryProvider below is the concrete implementation.
type Provider interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// MemoryProvider is a mutex-guarded map-backed Provider, seeded from a
// loaded Config for the handful of keys §6 names explicitly
// (`srt.inputs`, `virtual.stillimages`, `virtual.colors`, golf
// detection preset selection).
type MemoryProvider struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryProvider seeds a Provider from cfg's capture/autocut
// settings so callers can look them up by the §6 key names without
// reaching into the typed Config struct.
func NewMemoryProvider(cfg *Config) *MemoryProvider {
	p := &MemoryProvider{values: make(map[string]string)}

	if inputsJSON, err := json.Marshal(cfg.Capture.SRTInputs); err == nil {
		p.values["srt.inputs"] = string(inputsJSON)
	}
	if stillJSON, err := json.Marshal(cfg.Capture.StillImages); err == nil {
		p.values["virtual.stillimages"] = string(stillJSON)
	}
	if colorsJSON, err := json.Marshal(cfg.Capture.Colors); err == nil {
		p.values["virtual.colors"] = string(colorsJSON)
	}
	p.values["autocut.sensitivity"] = cfg.AutoCut.Sensitivity

	return p
}

// Get returns the value for key and whether it was present.
func (p *MemoryProvider) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

// Set stores value under key, creating it if absent.
func (p *MemoryProvider) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values == nil {
		p.values = make(map[string]string)
	}
	p.values[key] = value
	return nil
}

// SRTInputsFrom parses the `srt.inputs` settings key's JSON array of
// `{ name, port, latency_ms }` into typed SRTInput values.
func SRTInputsFrom(p Provider) ([]SRTInput, error) {
	raw, ok := p.Get("srt.inputs")
	if !ok || raw == "" {
		return nil, nil
	}
	var inputs []SRTInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		return nil, fmt.Errorf("parsing srt.inputs: %w", err)
	}
	return inputs, nil
}
