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

// VoiceClient talks to the text-to-speech service.
type VoiceClient struct {
	cfg    config.VoiceProviderConfig
	caller *httpclient.Caller
	logger *zap.Logger
}

// NewVoiceClient creates a voice provider client.
func NewVoiceClient(cfg config.VoiceProviderConfig, caller *httpclient.Caller, logger *zap.Logger) *VoiceClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoiceClient{
		cfg:    cfg,
		caller: caller,
		logger: logger.Named("voice_provider"),
	}
}

type ttsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type ttsRequest struct {
	Text          string            `json:"text"`
	ModelID       string            `json:"model_id"`
	VoiceSettings *ttsVoiceSettings `json:"voice_settings,omitempty"`
}

// Synthesize requests streamed speech and returns the assembled audio.
// Empty voice and model ids fall back to the configured defaults.
func (c *VoiceClient) Synthesize(ctx context.Context, in *model.VoiceSynthesis) ([]byte, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, errors.New("voice: text is required")
	}
	voiceID := in.VoiceID
	if voiceID == "" {
		voiceID = c.cfg.DefaultVoiceID
	}
	modelID := in.ModelID
	if modelID == "" {
		modelID = c.cfg.ModelID
	}

	s := in.Settings
	if s == nil {
		s = c.defaultSettings()
	}
	body := &ttsRequest{
		Text:    in.Text,
		ModelID: modelID,
		VoiceSettings: &ttsVoiceSettings{
			Stability:       s.Stability,
			SimilarityBoost: s.SimilarityBoost,
			Style:           s.Style,
			UseSpeakerBoost: s.SpeakerBoost,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("voice: marshal request: %w", err)
	}

	endpoint := c.endpoint("/v1/text-to-speech/" + url.PathEscape(voiceID) + "/stream")
	if c.cfg.OutputFormat != "" {
		endpoint += "?output_format=" + url.QueryEscape(c.cfg.OutputFormat)
	}
	req, err := newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	c.authorize(req)

	audio, err := c.caller.Do(ctx, "synthesize", req)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("voice: empty audio stream")
	}
	return audio, nil
}

// defaultSettings returns the configured voice settings.
func (c *VoiceClient) defaultSettings() *model.VoiceSettings {
	return &model.VoiceSettings{
		Stability:       c.cfg.Stability,
		SimilarityBoost: c.cfg.SimilarityBoost,
		Style:           c.cfg.Style,
		SpeakerBoost:    c.cfg.SpeakerBoost,
	}
}

// CloneVoice registers an instant voice clone from a sample.
func (c *VoiceClient) CloneVoice(ctx context.Context, name string, sample []byte, filename string) (string, error) {
	if len(sample) == 0 {
		return "", errors.New("voice: sample is required")
	}
	if filename == "" {
		filename = "sample.mp3"
	}

	body, contentType, err := multipartBody(
		map[string]string{"name": name},
		[]formFile{{field: "files", filename: filename, data: sample}},
	)
	if err != nil {
		return "", fmt.Errorf("voice: %w", err)
	}
	req, err := newRequest(ctx, http.MethodPost, c.endpoint("/v1/voices/add"), body, contentType)
	if err != nil {
		return "", fmt.Errorf("voice: %w", err)
	}
	c.authorize(req)

	var resp struct {
		VoiceID string `json:"voice_id"`
	}
	if err := c.caller.DoJSON(ctx, "clone", req, &resp); err != nil {
		return "", err
	}
	if resp.VoiceID == "" {
		return "", errors.New("voice: clone response has no voice id")
	}

	c.logger.Info("voice cloned", zap.String("name", name), zap.String("voice_id", resp.VoiceID))
	return resp.VoiceID, nil
}

// ListVoices returns the voices available to the account.
func (c *VoiceClient) ListVoices(ctx context.Context) ([]*model.Voice, error) {
	req, err := newRequest(ctx, http.MethodGet, c.endpoint("/v1/voices"), nil, "")
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	c.authorize(req)

	var resp struct {
		Voices []struct {
			VoiceID  string `json:"voice_id"`
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"voices"`
	}
	if err := c.caller.DoJSON(ctx, "list_voices", req, &resp); err != nil {
		return nil, err
	}

	voices := make([]*model.Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, &model.Voice{ID: v.VoiceID, Name: v.Name, Category: v.Category})
	}
	return voices, nil
}

func (c *VoiceClient) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *VoiceClient) authorize(req *http.Request) {
	req.Header.Set("xi-api-key", c.cfg.APIKey)
}

// Compile-time check
var _ outbound.VoiceProviderPort = (*VoiceClient)(nil)
