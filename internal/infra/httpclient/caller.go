package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/utils/metrics"
	"github.com/relai/server/internal/utils/requestctx"
)

// ErrCircuitOpen is returned while a provider's breaker rejects calls.
var ErrCircuitOpen = errors.New("provider circuit open")

const maxErrorMessage = 300

// ProviderError is a non-success response from a remote provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Temporary reports whether retrying later could succeed.
func (e *ProviderError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Caller executes provider requests through a circuit breaker and records
// per-operation metrics.
type Caller struct {
	name    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCaller creates a caller for the named provider.
func NewCaller(name string, client *http.Client, bc config.BreakerConfig, m *metrics.Metrics, logger *zap.Logger) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(name)

	threshold := bc.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	c := &Caller{
		name:    name,
		client:  client,
		metrics: m,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			m.SetCircuitOpen(name, to == gobreaker.StateOpen)
		},
	})
	return c
}

// Name returns the provider name.
func (c *Caller) Name() string {
	return c.name
}

// Do sends req and returns the full response body of a 2xx response.
func (c *Caller) Do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(req.WithContext(ctx))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s", ErrCircuitOpen, c.name)
	}
	c.metrics.RecordProviderRequest(c.name, op, err, time.Since(start))

	fields := []zap.Field{
		zap.String("op", op),
		zap.Duration("elapsed", time.Since(start)),
	}
	if jobID := requestctx.JobID(ctx); jobID != "" {
		fields = append(fields, zap.String("job_id", jobID))
	}
	if err != nil {
		c.logger.Debug("provider call failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Debug("provider call", append(fields, zap.Int("bytes", len(body)))...)
	return body, nil
}

// DoJSON sends req and decodes a 2xx JSON response into out.
func (c *Caller) DoJSON(ctx context.Context, op string, req *http.Request, out any) error {
	body, err := c.Do(ctx, op, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode %s response: %w", c.name, op, err)
	}
	return nil
}

func (c *Caller) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: execute request: %w", c.name, err)
	}
	defer resp.Body.Close()

	// Streamed bodies (speech audio) arrive in chunks; Copy assembles them.
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(buf.Bytes()),
		}
	}
	return buf.Bytes(), nil
}

// countsAsSuccess keeps caller mistakes and cancellations from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return !pe.Temporary()
	}
	return false
}

// errorMessage extracts a human readable message from a vendor error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, raw := range []json.RawMessage{payload.Error, payload.Detail} {
			if msg := nestedMessage(raw); msg != "" {
				return msg
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}

func nestedMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}
