package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/utils/metrics"
)

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestCaller_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	m := metrics.New("test", prometheus.NewRegistry())
	c := NewCaller("video", srv.Client(), config.BreakerConfig{}, m, nil)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.DoJSON(context.Background(), "submit", newRequest(t, srv.URL), &out))
	assert.Equal(t, "abc", out.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("video", "submit", "success")))
}

func TestCaller_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":{"status":"invalid","message":"voice not found"}}`))
	}))
	defer srv.Close()

	c := NewCaller("voice", srv.Client(), config.BreakerConfig{}, nil, nil)
	_, err := c.Do(context.Background(), "tts", newRequest(t, srv.URL))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "voice", pe.Provider)
	assert.Equal(t, http.StatusUnprocessableEntity, pe.StatusCode)
	assert.Equal(t, "voice not found", pe.Message)
	assert.False(t, pe.Temporary())
}

func TestCaller_BreakerTripsOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := metrics.New("test", prometheus.NewRegistry())
	c := NewCaller("music", srv.Client(), config.BreakerConfig{
		FailureThreshold: 2,
		Timeout:          time.Minute,
	}, m, nil)

	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), "poll", newRequest(t, srv.URL))
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
	}

	_, err := c.Do(context.Background(), "poll", newRequest(t, srv.URL))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCircuitOpen.WithLabelValues("music")))
}

func TestCaller_ClientErrorsDoNotTrip(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewCaller("video", srv.Client(), config.BreakerConfig{FailureThreshold: 1, Timeout: time.Minute}, nil, nil)
	for i := 0; i < 3; i++ {
		_, err := c.Do(context.Background(), "submit", newRequest(t, srv.URL))
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"openai style", `{"error":{"message":"bad key","type":"auth"}}`, "bad key"},
		{"string error", `{"error":"quota exceeded"}`, "quota exceeded"},
		{"detail string", `{"detail":"Not authenticated"}`, "Not authenticated"},
		{"top level message", `{"message":"busy"}`, "busy"},
		{"plain text", "  upstream down \n", "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage([]byte(tt.body)))
		})
	}
}
