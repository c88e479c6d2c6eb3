package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"investoriq_backend/internal/logger"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ErrEmptyResponse - модель ответила без единого варианта
var ErrEmptyResponse = errors.New("llm: empty completion")

// Completer - один запрос "system + user -> текст".
// Parser и Generator работают только через него.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerMinute int
}

// Client - Completer поверх OpenAI-совместимого API
// с ограничением частоты запросов.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Client{
		api:     openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	logger.CtxDebug(ctx, "llm completion",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
