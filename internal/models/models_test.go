package models

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/inboxd/inboxd/internal/config"
)

func TestCreateModelUnknownDriver(t *testing.T) {
	_, err := CreateModel(context.Background(), config.ProviderConfig{Driver: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestResolveAPIKeyDirect(t *testing.T) {
	key, err := resolveAPIKey(config.ProviderConfig{Driver: "openai", APIKey: "sk-direct"})
	if err != nil {
		t.Fatalf("resolveAPIKey: %v", err)
	}
	if key != "sk-direct" {
		t.Errorf("got %q", key)
	}
}

func TestResolveAPIKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")

	key, err := resolveAPIKey(config.ProviderConfig{Driver: "anthropic"})
	if err != nil {
		t.Fatalf("resolveAPIKey: %v", err)
	}
	if key != "sk-env" {
		t.Errorf("got %q", key)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := resolveAPIKey(config.ProviderConfig{Driver: "openai"}); err == nil {
		t.Fatal("expected error without key")
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry(config.ModelsConfig{Default: "main"})
	if _, err := r.Get(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestRegistryNoDefault(t *testing.T) {
	r := NewRegistry(config.ModelsConfig{})
	if _, err := r.Default(context.Background()); err == nil {
		t.Fatal("expected error without default")
	}
}

func TestHandleError(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"server returned 401 unauthorized", "authentication failed"},
		{"429 too many requests", "rate limited"},
		{"model not found", "model not found"},
		{"dial tcp: connection refused", "connection error"},
	}
	for _, tc := range cases {
		got := HandleError(errors.New(tc.in))
		if !strings.Contains(got.Error(), tc.want) {
			t.Errorf("HandleError(%q) = %q, want prefix %q", tc.in, got.Error(), tc.want)
		}
	}

	if HandleError(nil) != nil {
		t.Error("nil should pass through")
	}

	plain := errors.New("something else entirely")
	if HandleError(plain) != plain {
		t.Error("unrecognized errors should pass through unchanged")
	}
}
