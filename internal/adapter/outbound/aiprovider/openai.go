// Package aiprovider adapts chat-style text generation services to
// outbound.TextGenerationPort.
package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/relai/server/internal/infra/httpclient"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/outbound"
)

// ErrEmptyCompletion is returned when a provider answers without text.
var ErrEmptyCompletion = errors.New("empty completion")

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	caller  *httpclient.Caller
}

// NewOpenAIClient creates a chat completions client.
func NewOpenAIClient(baseURL, apiKey, model string, caller *httpclient.Caller) *OpenAIClient {
	return &OpenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		caller:  caller,
	}
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []model.ChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message model.ChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete returns the first choice's message content.
func (c *OpenAIClient) Complete(ctx context.Context, in *model.ChatRequest) (string, error) {
	payload, err := json.Marshal(&chatCompletionRequest{
		Model:       c.model,
		Messages:    in.Messages,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp chatCompletionResponse
	if err := c.caller.DoJSON(ctx, "chat", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}

// Compile-time check
var _ outbound.TextGenerationPort = (*OpenAIClient)(nil)
