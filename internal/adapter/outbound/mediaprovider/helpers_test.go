package mediaprovider

import (
	"net/http"
	"testing"
	"time"

	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/infra/httpclient"
)

func testCaller(t *testing.T, name string) *httpclient.Caller {
	t.Helper()
	return httpclient.NewCaller(name, &http.Client{Timeout: 5 * time.Second}, config.BreakerConfig{
		FailureThreshold: 100,
		Timeout:          time.Minute,
	}, nil, nil)
}
