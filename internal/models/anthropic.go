package models

import (
	"context"

	einoclaude "github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/inboxd/inboxd/internal/config"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-0"
	defaultAnthropicMaxTokens = 4096
)

func newAnthropic(ctx context.Context, cfg config.ProviderConfig, apiKey string) (model.ToolCallingChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	modelConfig := &einoclaude.Config{
		APIKey:    apiKey,
		Model:     modelName,
		MaxTokens: maxTokens,
	}

	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		modelConfig.BaseURL = &baseURL
	}

	if temp, ok := optionFloat(cfg.Options, "temperature"); ok {
		modelConfig.Temperature = &temp
	}

	return einoclaude.NewChatModel(ctx, modelConfig)
}
