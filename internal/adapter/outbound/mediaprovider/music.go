package mediaprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/infra/httpclient"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/outbound"
)

// MusicClient talks to the background music service.
type MusicClient struct {
	cfg    config.MusicProviderConfig
	caller *httpclient.Caller
	poller poller
	logger *zap.Logger
}

// NewMusicClient creates a music provider client.
func NewMusicClient(cfg config.MusicProviderConfig, caller *httpclient.Caller, logger *zap.Logger) *MusicClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("music_provider")
	return &MusicClient{
		cfg:    cfg,
		caller: caller,
		poller: poller{interval: cfg.PollInterval, maxWait: cfg.MaxWait, logger: logger},
		logger: logger,
	}
}

type musicGenerateRequest struct {
	Prompt       string `json:"prompt"`
	Duration     int    `json:"duration"`
	Instrumental bool   `json:"instrumental"`
	Style        string `json:"style"`
}

type musicGenerateResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	AudioURL string `json:"audio_url"`
	Error    string `json:"error,omitempty"`
}

// Submit starts a music generation and returns its id.
func (c *MusicClient) Submit(ctx context.Context, sub *model.MusicSubmission) (string, error) {
	style := sub.Style
	if style == "" {
		style = c.cfg.Style
	}
	payload, err := json.Marshal(&musicGenerateRequest{
		Prompt:       sub.Prompt,
		Duration:     sub.DurationSeconds,
		Instrumental: sub.Instrumental,
		Style:        style,
	})
	if err != nil {
		return "", fmt.Errorf("music: marshal request: %w", err)
	}

	req, err := newRequest(ctx, http.MethodPost, c.endpoint("/generate"), bytes.NewReader(payload), "application/json")
	if err != nil {
		return "", fmt.Errorf("music: %w", err)
	}
	c.authorize(req)

	var resp musicGenerateResponse
	if err := c.caller.DoJSON(ctx, "submit", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("music: submit response has no generation id")
	}
	return resp.ID, nil
}

// AwaitCompletion polls the generation every poll interval up to the ceiling.
func (c *MusicClient) AwaitCompletion(ctx context.Context, generationID string) (*model.RemoteStatus, error) {
	return c.poller.await(ctx, generationID, func(ctx context.Context) (*model.RemoteStatus, error) {
		return c.retrieve(ctx, generationID)
	})
}

func (c *MusicClient) retrieve(ctx context.Context, generationID string) (*model.RemoteStatus, error) {
	req, err := newRequest(ctx, http.MethodGet, c.endpoint("/generate/"+url.PathEscape(generationID)), nil, "")
	if err != nil {
		return nil, fmt.Errorf("music: %w", err)
	}
	c.authorize(req)

	var resp musicGenerateResponse
	if err := c.caller.DoJSON(ctx, "retrieve", req, &resp); err != nil {
		return nil, err
	}

	status := &model.RemoteStatus{Handle: generationID, State: normalizeState(resp.Status)}
	switch status.State {
	case model.RemoteStateCompleted:
		if resp.AudioURL == "" {
			return nil, fmt.Errorf("music: generation %s completed without audio url", generationID)
		}
		status.OutputURL = resp.AudioURL
	case model.RemoteStateFailed:
		status.Message = "Music generation failed"
		if resp.Error != "" {
			status.Message = resp.Error
		}
	}
	return status, nil
}

// Download fetches the finished track.
func (c *MusicClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return nil, fmt.Errorf("music: %w", err)
	}
	return c.caller.Do(ctx, "download", req)
}

func (c *MusicClient) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *MusicClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
}

// Compile-time check
var _ outbound.MusicProviderPort = (*MusicClient)(nil)
