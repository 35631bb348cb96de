package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relai/server/internal/port/outbound"
	apperrors "github.com/relai/server/internal/utils/errors"
)

const (
	// IdempotencyKeyHeader is the header for idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the store.
	IdempotencyReplayedHeader = "Idempotency-Replayed"

	defaultIdempotencyTTL = time.Hour
	idempotencyLockTTL    = 30 * time.Second
)

// idempotencyResponseWriter tees the response body so it can be stored.
type idempotencyResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key so a
// retried generate call does not start a second job. A nil store disables it,
// and store errors let the request through unprotected.
func Idempotency(store outbound.IdempotencyStorePort, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		header := c.GetHeader(IdempotencyKeyHeader)
		if store == nil || header == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := idempotencyKey(c, header)

		if replayStored(c, store, key) {
			return
		}

		locked, err := store.Acquire(ctx, key, idempotencyLockTTL)
		if err != nil {
			c.Next()
			return
		}
		if !locked {
			appErr := apperrors.NewAppError("REQUEST_IN_PROGRESS",
				"A request with this idempotency key is already being processed",
				http.StatusConflict, apperrors.ErrConflict)
			c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
			return
		}
		defer func() { _ = store.Release(ctx, key) }()

		// The holder before us may have saved its response after our first look.
		if replayStored(c, store, key) {
			return
		}

		w := &idempotencyResponseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// 5xx responses are not stored so the client may retry them.
		status := c.Writer.Status()
		if status < 200 || status >= 500 {
			return
		}
		headers := make(map[string]string, len(c.Writer.Header()))
		for k := range c.Writer.Header() {
			headers[k] = c.Writer.Header().Get(k)
		}
		_ = store.Save(ctx, key, &outbound.StoredResponse{
			StatusCode: status,
			Headers:    headers,
			Body:       w.body.Bytes(),
		}, ttl)
	}
}

// replayStored writes the stored response for key, if any, and aborts.
func replayStored(c *gin.Context, store outbound.IdempotencyStorePort, key string) bool {
	cached, err := store.Load(c.Request.Context(), key)
	if err != nil || cached == nil {
		return false
	}
	for k, v := range cached.Headers {
		c.Header(k, v)
	}
	c.Header(IdempotencyReplayedHeader, "true")
	c.Data(cached.StatusCode, cached.Headers["Content-Type"], cached.Body)
	c.Abort()
	return true
}

func idempotencyKey(c *gin.Context, header string) string {
	hash := sha256.Sum256([]byte(c.Request.Method + ":" + c.FullPath() + ":" + header))
	return hex.EncodeToString(hash[:])
}
