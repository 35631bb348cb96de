// Package suggestion generates short-form video ideas and rewrites prompts
// through a text generation provider.
package suggestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
	"github.com/relai/server/internal/port/outbound"
	"github.com/relai/server/internal/utils/metrics"
)

var (
	// ErrSuggestionFailed wraps text provider failures during generation.
	ErrSuggestionFailed = errors.New("suggestion generation failed")

	// ErrEmptyContext is returned when no brief is given.
	ErrEmptyContext = errors.New("context is required")
)

const cacheName = "suggestions"

const systemPrompt = `You are a creative social media content strategist specializing in viral video ideas.
Generate engaging, creative video concepts that work well with AI video generation (Sora 2).

For each suggestion, provide:
1. A catchy title
2. A detailed scene description (be specific about actions, settings, clothing, props)
3. Estimated duration (15-60 seconds)
4. Platform recommendations (TikTok, Instagram Reels, YouTube Shorts)
5. Hashtag suggestions

Focus on:
- Trendy, viral-worthy concepts
- Clear, filmable scenes
- Engaging hooks in the first 3 seconds
- Content that showcases personality and expertise
- Ideas that work well with AI generation (no complex face-to-face interactions)
`

const userPromptTemplate = `Generate 5 creative video ideas based on this context:

Context: %s

%s

Make the ideas specific, actionable, and perfect for social media. Include interesting details like specific locations, clothing, props, or scenarios that make the content unique and engaging.

Format each suggestion as:
Title: [catchy title]
Description: [detailed scene description for AI video generation]
Duration: [seconds]
Platforms: [best platforms]
Hashtags: [5 relevant hashtags]
Hook: [first 3 seconds description]
`

const enhanceSystemPrompt = `You are an expert at creating detailed prompts for AI video generation.
Transform basic video ideas into detailed, specific prompts that will produce high-quality results.

Include details about:
- Camera angles and movements
- Lighting conditions
- Specific actions and movements
- Environment details
- Clothing and appearance details
- Mood and atmosphere
- Pacing and timing

Keep the enhanced prompt clear and concise but detailed.`

// Config holds generation parameters.
type Config struct {
	GenerateTemperature float64
	GenerateMaxTokens   int
	EnhanceTemperature  float64
	EnhanceMaxTokens    int
	CacheTTL            time.Duration
}

// DefaultConfig returns default suggestion configuration.
func DefaultConfig() *Config {
	return &Config{
		GenerateTemperature: 0.8,
		GenerateMaxTokens:   2000,
		EnhanceTemperature:  0.7,
		EnhanceMaxTokens:    500,
		CacheTTL:            6 * time.Hour,
	}
}

// Domain implements inbound.SuggestionDomain.
type Domain struct {
	text    outbound.TextGenerationPort
	cache   outbound.SuggestionCachePort
	config  *Config
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDomain creates a suggestion domain. cache may be nil.
func NewDomain(
	text outbound.TextGenerationPort,
	cache outbound.SuggestionCachePort,
	config *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Domain {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Domain{
		text:    text,
		cache:   cache,
		config:  config,
		metrics: m,
		logger:  logger.Named("suggestion"),
	}
}

// Generate asks the provider for video ideas based on brief.
func (d *Domain) Generate(ctx context.Context, brief, preferences string) ([]*model.Suggestion, error) {
	brief = strings.TrimSpace(brief)
	preferences = strings.TrimSpace(preferences)
	if brief == "" {
		return nil, ErrEmptyContext
	}

	var key string
	if d.cache != nil {
		key = d.cache.GenerateKey(brief, preferences)
		cached, err := d.cache.Get(ctx, key)
		switch {
		case err != nil:
			d.logger.Warn("suggestion cache read failed", zap.Error(err))
		case cached != nil:
			d.metrics.RecordCacheHit(cacheName)
			return cached, nil
		default:
			d.metrics.RecordCacheMiss(cacheName)
		}
	}

	text, err := d.text.Complete(ctx, &model.ChatRequest{
		Messages: []model.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(brief, preferences)},
		},
		Temperature: d.config.GenerateTemperature,
		MaxTokens:   d.config.GenerateMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSuggestionFailed, err)
	}

	suggestions := Parse(text)
	d.logger.Debug("suggestions generated", zap.Int("count", len(suggestions)))

	if d.cache != nil && len(suggestions) > 0 {
		if err := d.cache.Set(ctx, key, suggestions, d.config.CacheTTL); err != nil {
			d.logger.Warn("suggestion cache write failed", zap.Error(err))
		}
	}
	return suggestions, nil
}

// Enhance rewrites a basic prompt into a detailed one. Any provider failure
// returns the prompt unchanged.
func (d *Domain) Enhance(ctx context.Context, prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return prompt
	}

	text, err := d.text.Complete(ctx, &model.ChatRequest{
		Messages: []model.ChatMessage{
			{Role: "system", Content: enhanceSystemPrompt},
			{Role: "user", Content: "Enhance this video prompt: " + prompt},
		},
		Temperature: d.config.EnhanceTemperature,
		MaxTokens:   d.config.EnhanceMaxTokens,
	})
	if err != nil {
		d.logger.Warn("prompt enhancement failed, keeping original", zap.Error(err))
		return prompt
	}

	enhanced := strings.TrimSpace(text)
	if enhanced == "" {
		return prompt
	}
	return enhanced
}

func userPrompt(brief, preferences string) string {
	var prefs string
	if preferences != "" {
		prefs = "User preferences: " + preferences
	}
	return fmt.Sprintf(userPromptTemplate, brief, prefs)
}

// Compile-time check
var _ inbound.SuggestionDomain = (*Domain)(nil)
