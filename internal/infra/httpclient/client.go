// Package httpclient builds the pooled HTTP clients shared by provider adapters.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/relai/server/internal/infra/config"
)

// Option customises a client built by New.
type Option func(*http.Client)

// WithTimeout overrides the configured whole-request timeout. Zero disables it,
// which callers use for long downloads bounded by their own context.
func WithTimeout(d time.Duration) Option {
	return func(c *http.Client) {
		c.Timeout = d
	}
}

// NewTransport creates a tuned transport from cfg.
func NewTransport(cfg config.HTTPClientConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}
}

// New creates an HTTP client over a shared transport.
// Pass nil transport to get a fresh one built from cfg.
func New(cfg config.HTTPClientConfig, transport http.RoundTripper, opts ...Option) *http.Client {
	if transport == nil {
		transport = NewTransport(cfg)
	}
	c := &http.Client{
		Transport: transport,
		Timeout:   cfg.ResponseTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
