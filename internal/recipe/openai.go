package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/dukerupert/larder/internal/metrics"
)

const (
	DefaultModel = "gpt-4o-mini"
	temperature  = 0.7

	systemPrompt = "You are a professional chef assistant. Generate creative and practical recipes using the provided ingredients. " +
		"Return the response as a JSON object with name, description, ingredients (array of strings), " +
		"instructions (array of strings), cookingTime, servings and difficulty."
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Generator asks an OpenAI-compatible chat completion API for recipes.
type Generator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewGenerator(cfg Config, logger *slog.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	logger.Info("recipe generator initialized", "model", cfg.Model)
	return &Generator{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Generate makes a single completion call for the given ingredients. There
// is no retry; upstream failures are returned to the caller.
func (g *Generator) Generate(ctx context.Context, ingredients []string) (*Generated, error) {
	ingredients = CleanIngredients(ingredients)
	if len(ingredients) == 0 {
		return nil, ErrNoIngredients
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(ingredients)},
		},
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	started := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.ObserveGeneration("error", started)
		g.logger.Error("recipe completion failed", "error", err)
		return nil, fmt.Errorf("recipe completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.ObserveGeneration("error", started)
		return nil, fmt.Errorf("recipe completion: no choices returned")
	}

	content := resp.Choices[0].Message.Content
	recipe, fallback := parseContent(content, ingredients)
	outcome := "ok"
	if fallback {
		outcome = "fallback"
		g.logger.Warn("recipe reply was not usable JSON, using fallback", "finish_reason", resp.Choices[0].FinishReason)
	}
	metrics.ObserveGeneration(outcome, started)

	return &recipe, nil
}

func userPrompt(ingredients []string) string {
	return "Create a recipe using these ingredients: " + strings.Join(ingredients, ", ") +
		". You can suggest additional common ingredients if needed. Make it delicious and practical for home cooking."
}
