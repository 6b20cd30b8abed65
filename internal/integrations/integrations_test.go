package integrations

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestRegistryDefaults(t *testing.T) {
	r, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	all := r.List()
	if len(all) != 8 {
		t.Fatalf("List: got %d integrations, want 8", len(all))
	}

	gmail, err := r.Get("gmail")
	if err != nil {
		t.Fatalf("Get gmail: %v", err)
	}
	if !gmail.Enabled || gmail.Status != "connected" {
		t.Errorf("gmail should default to enabled/connected, got %+v", gmail)
	}

	slack, err := r.Get("slack")
	if err != nil {
		t.Fatalf("Get slack: %v", err)
	}
	if slack.Enabled || slack.Status != "disconnected" {
		t.Errorf("slack should default to disabled, got %+v", slack)
	}

	if _, err := r.Get("carrier-pigeon"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown: got %v, want ErrNotFound", err)
	}
}

func TestRegistryToggle(t *testing.T) {
	r, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	in, err := r.Toggle("slack")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !in.Enabled || in.Status != "connected" {
		t.Errorf("after toggle: got %+v", in)
	}
	if !r.Enabled("slack") {
		t.Error("Enabled should report true after toggle")
	}

	in, err = r.Toggle("slack")
	if err != nil {
		t.Fatalf("Toggle back: %v", err)
	}
	if in.Enabled || in.Status != "disconnected" {
		t.Errorf("after second toggle: got %+v", in)
	}

	if _, err := r.Toggle("carrier-pigeon"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Toggle unknown: got %v, want ErrNotFound", err)
	}
}

func TestRegistryStatePersistence(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "integrations.yaml")

	r, err := NewRegistry(statePath)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := r.Toggle("telegram"); err != nil {
		t.Fatalf("Toggle telegram: %v", err)
	}
	if _, err := r.Toggle("gmail"); err != nil {
		t.Fatalf("Toggle gmail: %v", err)
	}

	r2, err := NewRegistry(statePath)
	if err != nil {
		t.Fatalf("NewRegistry reload: %v", err)
	}
	if !r2.Enabled("telegram") {
		t.Error("telegram enabled state should survive reload")
	}
	if r2.Enabled("gmail") {
		t.Error("gmail disabled state should survive reload")
	}

	tg, err := r2.Get("telegram")
	if err != nil {
		t.Fatalf("Get telegram: %v", err)
	}
	if tg.Status != "connected" {
		t.Errorf("reloaded status: got %q", tg.Status)
	}
}
