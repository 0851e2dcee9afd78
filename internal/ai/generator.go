package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"sitegen_server/internal/ai/prompts"
	"sitegen_server/internal/logger"
)

// ErrUpstreamUnavailable marks failures of the external model call so the API
// layer can answer 502 with a retryable hint instead of a generic 500.
var ErrUpstreamUnavailable = errors.New("upstream model unavailable")

// Generator is the client for the external text-generation model. It holds no
// per-request state; every call is independent.
type Generator struct {
	client  *openai.Client
	modelID string
	log     *logger.Logger
}

func NewGenerator(apiKey, modelID string, log *logger.Logger) *Generator {
	return &Generator{
		client:  openai.NewClient(apiKey),
		modelID: modelID,
		log:     log,
	}
}

// GenerateSite sends the composed site-generation prompt to the model and
// returns its raw textual output. The call is retried once on transient
// upstream errors (rate limits, 5xx); anything else fails immediately.
func (g *Generator) GenerateSite(ctx context.Context, userPrompt string) (string, error) {
	system, user := prompts.ComposeSitePrompt(userPrompt)

	req := openai.ChatCompletionRequest{
		Model: g.modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		// Lower temperature for more predictable code generation.
		Temperature: 0.3,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil && shouldRetry(err) {
		g.log.Warn("model call failed, retrying once", "error", err)
		time.Sleep(2 * time.Second)
		resp, err = g.client.CreateChatCompletion(ctx, req)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		g.log.Warn("model returned empty response", "usage", resp.Usage)
		return "", fmt.Errorf("%w: empty response", ErrUpstreamUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

// shouldRetry reports whether an upstream error looks transient.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "502 bad gateway") ||
		strings.Contains(errMsg, "503 service unavailable") ||
		strings.Contains(errMsg, "504 gateway timeout") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "connection reset by peer") {
		return true
	}
	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		if openAIErr.HTTPStatusCode >= 500 || openAIErr.HTTPStatusCode == 429 {
			return true
		}
	}
	return false
}
