package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/gitmaxer/gitmaxer-bot/pkg/config"
	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator talks to any OpenAI-compatible chat completion endpoint,
// walking the rotator's key×model grid until one slot yields usable text.
type OpenAIGenerator struct {
	rotator     *Rotator
	clients     []*openai.Client
	temperature float32
}

func NewOpenAIGenerator(cfg config.GeneratorConfig) (*OpenAIGenerator, error) {
	rotator, err := NewRotator(cfg.APIKeys, cfg.Models)
	if err != nil {
		return nil, err
	}
	keys := rotator.Keys()
	clients := make([]*openai.Client, len(keys))
	for i, key := range keys {
		clientConfig := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		clients[i] = openai.NewClientWithConfig(clientConfig)
	}
	return &OpenAIGenerator{rotator: rotator, clients: clients, temperature: cfg.Temperature}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	var lastErr error
	for _, slot := range g.rotator.Attempts() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := g.complete(ctx, slot, prompt)
		if err != nil {
			logger.Warn("generator attempt failed", "model", slot.Model, "key_index", slot.KeyIndex, "error", err)
			lastErr = err
			continue
		}
		g.rotator.Succeeded(slot)
		return text, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return "", fmt.Errorf("%w: %w", ErrGenerationFailed, lastErr)
}

func (g *OpenAIGenerator) complete(ctx context.Context, slot Slot, prompt Prompt) (string, error) {
	resp, err := g.clients[slot.KeyIndex].CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: slot.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUnusableContent)
	}
	return Clean(resp.Choices[0].Message.Content)
}
