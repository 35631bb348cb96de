package aiprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/outbound"
	"github.com/relai/server/internal/utils/metrics"
)

const providerGemini = "gemini"

// GeminiClient generates text with the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	breaker *gobreaker.CircuitBreaker[string]
	metrics *metrics.Metrics
}

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string // overrides the API endpoint
	HTTPClient *http.Client
	Breaker    config.BreakerConfig
	Metrics    *metrics.Metrics
}

// NewGeminiClient creates a Gemini text client.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.HTTPClient != nil {
		cc.HTTPClient = opts.HTTPClient
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	threshold := opts.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	m := opts.Metrics
	return &GeminiClient{
		client:  client,
		model:   opts.Model,
		metrics: m,
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        providerGemini,
			MaxRequests: opts.Breaker.MaxRequests,
			Interval:    opts.Breaker.Interval,
			Timeout:     opts.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, _, to gobreaker.State) {
				m.SetCircuitOpen(name, to == gobreaker.StateOpen)
			},
		}),
	}, nil
}

// Complete sends system messages as the system instruction and the rest as
// conversation turns.
func (c *GeminiClient) Complete(ctx context.Context, in *model.ChatRequest) (string, error) {
	var system []string
	var contents []*genai.Content
	for _, msg := range in.Messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(in.Temperature)),
	}
	if in.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(in.MaxTokens)
	}
	if len(system) > 0 {
		gc.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	start := time.Now()
	text, err := c.breaker.Execute(func() (string, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, gc)
		if err != nil {
			return "", fmt.Errorf("gemini: generate content: %w", err)
		}
		return resp.Text(), nil
	})
	c.metrics.RecordProviderRequest(providerGemini, "chat", err, time.Since(start))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyCompletion)
	}
	return text, nil
}

// Compile-time check
var _ outbound.TextGenerationPort = (*GeminiClient)(nil)
