package mediaprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/infra/httpclient"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/outbound"
)

const defaultVideoFailure = "Sora generation failed"

// VideoClient talks to the image-to-video service.
type VideoClient struct {
	cfg    config.VideoProviderConfig
	caller *httpclient.Caller
	poller poller
	logger *zap.Logger
}

// NewVideoClient creates a video provider client.
func NewVideoClient(cfg config.VideoProviderConfig, caller *httpclient.Caller, logger *zap.Logger) *VideoClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("video_provider")
	return &VideoClient{
		cfg:    cfg,
		caller: caller,
		poller: poller{interval: cfg.PollInterval, maxWait: cfg.MaxWait, logger: logger},
		logger: logger,
	}
}

type videoJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output *struct {
		URL string `json:"url"`
	} `json:"output,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Submit starts an image-to-video generation. Voice and music tracks are
// attached only when present.
func (c *VideoClient) Submit(ctx context.Context, sub *model.VideoSubmission) (string, error) {
	if len(sub.Image) == 0 {
		return "", errors.New("video: reference image is required")
	}

	resolution := sub.Resolution
	if resolution == "" {
		resolution = c.cfg.Resolution
	}
	fps := sub.FPS
	if fps == 0 {
		fps = c.cfg.FPS
	}

	fields := map[string]string{
		"model":      c.cfg.Model,
		"prompt":     sub.Prompt,
		"seconds":    strconv.Itoa(sub.DurationSeconds),
		"resolution": resolution,
		"fps":        strconv.Itoa(fps),
	}
	imageName := sub.ImageFilename
	if imageName == "" {
		imageName = "reference"
	}
	files := []formFile{{field: "input_reference", filename: imageName, contentType: sub.ImageContentType, data: sub.Image}}
	if len(sub.Voice) > 0 {
		files = append(files, formFile{field: "voice", filename: "voice.mp3", contentType: "audio/mpeg", data: sub.Voice})
	}
	if len(sub.Music) > 0 {
		files = append(files, formFile{field: "music", filename: "music.mp3", contentType: "audio/mpeg", data: sub.Music})
	}

	body, contentType, err := multipartBody(fields, files)
	if err != nil {
		return "", fmt.Errorf("video: %w", err)
	}
	req, err := newRequest(ctx, http.MethodPost, c.endpoint("/videos"), body, contentType)
	if err != nil {
		return "", fmt.Errorf("video: %w", err)
	}
	c.authorize(req)

	var resp videoJobResponse
	if err := c.caller.DoJSON(ctx, "submit", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("video: submit response has no job id")
	}

	c.logger.Info("video generation submitted",
		zap.String("handle", resp.ID),
		zap.Int("duration", sub.DurationSeconds),
		zap.Bool("voice", len(sub.Voice) > 0),
		zap.Bool("music", len(sub.Music) > 0),
	)
	return resp.ID, nil
}

// Retrieve reports the remote job state once.
func (c *VideoClient) Retrieve(ctx context.Context, handle string) (*model.RemoteStatus, error) {
	req, err := newRequest(ctx, http.MethodGet, c.endpoint("/videos/"+url.PathEscape(handle)), nil, "")
	if err != nil {
		return nil, fmt.Errorf("video: %w", err)
	}
	c.authorize(req)

	var resp videoJobResponse
	if err := c.caller.DoJSON(ctx, "retrieve", req, &resp); err != nil {
		return nil, err
	}

	status := &model.RemoteStatus{Handle: handle, State: normalizeState(resp.Status)}
	switch status.State {
	case model.RemoteStateCompleted:
		if resp.Output == nil || resp.Output.URL == "" {
			return nil, fmt.Errorf("video: job %s completed without output url", handle)
		}
		status.OutputURL = resp.Output.URL
	case model.RemoteStateFailed:
		status.Message = defaultVideoFailure
		if resp.Error != nil && resp.Error.Message != "" {
			status.Message = resp.Error.Message
		}
	}
	return status, nil
}

// AwaitCompletion polls Retrieve every poll interval up to the wait ceiling.
func (c *VideoClient) AwaitCompletion(ctx context.Context, handle string) (*model.RemoteStatus, error) {
	return c.poller.await(ctx, handle, func(ctx context.Context) (*model.RemoteStatus, error) {
		return c.Retrieve(ctx, handle)
	})
}

// Download fetches the finished video. Credentials are only sent to the
// provider's own host.
func (c *VideoClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return nil, fmt.Errorf("video: %w", err)
	}
	if strings.HasPrefix(rawURL, strings.TrimRight(c.cfg.BaseURL, "/")+"/") {
		c.authorize(req)
	}
	return c.caller.Do(ctx, "download", req)
}

func (c *VideoClient) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *VideoClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
}

// Compile-time check
var _ outbound.VideoProviderPort = (*VideoClient)(nil)
