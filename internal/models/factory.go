// Package models builds eino chat models from provider configuration.
package models

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/inboxd/inboxd/internal/config"
)

// CreateModel creates a model.ToolCallingChatModel from a provider config.
func CreateModel(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	switch strings.ToLower(cfg.Driver) {
	case "openai":
		key, err := resolveAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		return newOpenAI(ctx, cfg, key)
	case "anthropic":
		key, err := resolveAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		return newAnthropic(ctx, cfg, key)
	case "ollama":
		return newOllama(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}
}

// resolveAPIKey returns the configured key or falls back to the driver's
// conventional environment variable.
func resolveAPIKey(cfg config.ProviderConfig) (string, error) {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key, nil
	}

	var envVar string
	switch strings.ToLower(cfg.Driver) {
	case "anthropic":
		envVar = "ANTHROPIC_API_KEY"
	case "openai":
		envVar = "OPENAI_API_KEY"
	default:
		return "", fmt.Errorf("no api key configured for driver %s", cfg.Driver)
	}

	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s not set", envVar)
}

func optionFloat(opts map[string]any, name string) (float32, bool) {
	if opts == nil {
		return 0, false
	}
	v, ok := opts[name].(float64)
	if !ok {
		return 0, false
	}
	return float32(v), true
}
