// Package integrations maintains the catalog of message channels inboxd can
// connect to. The catalog ships with built-in defaults; enabled state is
// persisted to a YAML file so toggles survive restarts.
package integrations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Integration describes a single message channel.
type Integration struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Description string `json:"description" yaml:"description"`
	Logo        string `json:"logo" yaml:"logo"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Status      string `json:"status" yaml:"status"` // "connected" | "disconnected"
	Category    string `json:"category" yaml:"category"`
}

// ErrNotFound is returned for unknown integration names.
var ErrNotFound = errors.New("integration not found")

// Registry holds the integration catalog behind a mutex.
type Registry struct {
	mu        sync.RWMutex
	statePath string // YAML file for persisted enabled state, empty to skip
	byName    map[string]*Integration
}

// NewRegistry builds a registry from the built-in catalog, overlaying any
// persisted state found at statePath. Pass an empty statePath for a purely
// in-memory registry.
func NewRegistry(statePath string) (*Registry, error) {
	r := &Registry{
		statePath: statePath,
		byName:    make(map[string]*Integration),
	}
	for _, in := range defaultCatalog() {
		cp := in
		r.byName[in.Name] = &cp
	}
	if statePath != "" {
		if err := r.loadState(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// List returns all integrations sorted by name.
func (r *Registry) List() []Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Integration, 0, len(r.byName))
	for _, in := range r.byName {
		out = append(out, *in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the integration with the given name.
func (r *Registry) Get(name string) (Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, ok := r.byName[name]
	if !ok {
		return Integration{}, ErrNotFound
	}
	return *in, nil
}

// Enabled reports whether the named integration exists and is enabled.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, ok := r.byName[name]
	return ok && in.Enabled
}

// Toggle flips an integration's enabled flag, persists the catalog state,
// and returns the updated integration.
func (r *Registry) Toggle(name string) (Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.byName[name]
	if !ok {
		return Integration{}, ErrNotFound
	}

	in.Enabled = !in.Enabled
	if in.Enabled {
		in.Status = "connected"
	} else {
		in.Status = "disconnected"
	}

	if err := r.saveState(); err != nil {
		return Integration{}, err
	}
	return *in, nil
}

// persistedState is the shape of the YAML state file: only what the user can
// change, keyed by integration name.
type persistedState struct {
	Integrations map[string]struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"integrations"`
}

func (r *Registry) loadState() error {
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read integrations state: %w", err)
	}

	var state persistedState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parse integrations state: %w", err)
	}

	for name, s := range state.Integrations {
		in, ok := r.byName[name]
		if !ok {
			continue
		}
		in.Enabled = s.Enabled
		if s.Enabled {
			in.Status = "connected"
		} else {
			in.Status = "disconnected"
		}
	}
	return nil
}

func (r *Registry) saveState() error {
	if r.statePath == "" {
		return nil
	}

	state := persistedState{Integrations: make(map[string]struct {
		Enabled bool `yaml:"enabled"`
	})}
	for name, in := range r.byName {
		state.Integrations[name] = struct {
			Enabled bool `yaml:"enabled"`
		}{Enabled: in.Enabled}
	}

	data, err := yaml.Marshal(&state)
	if err != nil {
		return fmt.Errorf("marshal integrations state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.statePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(r.statePath, data, 0o644); err != nil {
		return fmt.Errorf("write integrations state: %w", err)
	}
	return nil
}
