package aiprovider

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/infra/httpclient"
	"github.com/relai/server/internal/port/outbound"
	"github.com/relai/server/internal/utils/metrics"
)

// New returns the text generation backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.TextProviderConfig, bc config.BreakerConfig, client *http.Client, m *metrics.Metrics, logger *zap.Logger) (outbound.TextGenerationPort, error) {
	switch cfg.Backend {
	case config.TextBackendOpenAI:
		caller := httpclient.NewCaller("text", client, bc, m, logger)
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, caller), nil
	case config.TextBackendGemini:
		return NewGeminiClient(ctx, GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			HTTPClient: client,
			Breaker:    bc,
			Metrics:    m,
		})
	default:
		return nil, fmt.Errorf("aiprovider: unknown backend %q", cfg.Backend)
	}
}
