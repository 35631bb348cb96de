// Package mediaprovider adapts the remote video, speech and music services to
// the outbound provider ports.
package mediaprovider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/relai/server/internal/infra/httpclient"
	"github.com/relai/server/internal/model"
)

// ProviderError is a non-success response from a provider.
type ProviderError = httpclient.ProviderError

// Provider names, used as breaker names and metric labels.
const (
	ProviderVideo = "video"
	ProviderVoice = "voice"
	ProviderMusic = "music"
)

// normalizeState maps vendor status strings onto the shared remote states.
// Unknown values are treated as still running.
func normalizeState(status string) model.RemoteState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "complete", "succeeded", "success":
		return model.RemoteStateCompleted
	case "failed", "error", "cancelled", "canceled":
		return model.RemoteStateFailed
	default:
		return model.RemoteStatePending
	}
}

// formFile is one file part of a multipart request.
type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// multipartBody encodes fields and files as multipart/form-data.
func multipartBody(fields map[string]string, files []formFile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		ct := f.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.field, err)
		}
		if _, err := part.Write(f.data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// newRequest builds a request against an absolute url.
func newRequest(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}
