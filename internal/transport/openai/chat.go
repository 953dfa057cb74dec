// Package openai adapts the OpenAI chat completion API to the domain chat
// types.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sideline-ai/sideline/internal/domain"
	"github.com/sideline-ai/sideline/internal/domain/chat"
	"github.com/sideline-ai/sideline/internal/metrics"
)

// temperature keeps advice deterministic enough to compare across requests.
const temperature = 0.3

// ChatClient is a model provider using the OpenAI chat completion API.
type ChatClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the model provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewChatClient creates an OpenAI chat client.
func NewChatClient(cfg *Config) *ChatClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &ChatClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Model returns the configured model name.
func (c *ChatClient) Model() string { return c.model }

// Complete runs one chat completion. feature labels the metrics
// (lineup, compare, waivers, trades, chat).
func (c *ChatClient) Complete(ctx context.Context, feature string, messages []chat.Message, tools []chat.ToolDef) (chat.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toAPIMessages(messages),
		Temperature: temperature,
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(feature, c.model, "error").Inc()
		return chat.Completion{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues(feature, c.model, "error").Inc()
		return chat.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrModelProviderError)
	}

	metrics.ChatRequestsTotal.WithLabelValues(feature, c.model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(feature, c.model).Observe(duration.Seconds())
	metrics.ModelTokensTotal.WithLabelValues(c.model, "input").Add(float64(resp.Usage.PromptTokens))
	metrics.ModelTokensTotal.WithLabelValues(c.model, "output").Add(float64(resp.Usage.CompletionTokens))

	choice := resp.Choices[0].Message

	completion := chat.Completion{
		Content: choice.Content,
		Model:   resp.Model,
		Usage: chat.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, chat.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return completion, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *ChatClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toAPIMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		apiMsg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			apiMsg.ToolCalls = append(apiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, apiMsg)
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrModelProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrModelProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("model API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("model API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("model API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("model request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
