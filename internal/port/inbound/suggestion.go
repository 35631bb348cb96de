package inbound

import (
	"context"

	"github.com/relai/server/internal/model"
)

// SuggestionDomain generates video ideas and rewrites prompts.
type SuggestionDomain interface {
	Generate(ctx context.Context, brief, preferences string) ([]*model.Suggestion, error)

	// Enhance never fails; it returns prompt unchanged when rewriting is unavailable.
	Enhance(ctx context.Context, prompt string) string
}
