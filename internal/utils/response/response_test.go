package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/relai/server/internal/utils/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var errWidgetMissing = errors.New("widget missing")

func serve(t *testing.T, err error, mappings []ErrorMapping) (*httptest.ResponseRecorder, apperrors.ErrorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleErrorWithDefault(c, err, mappings)

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleErrorWithDefault(t *testing.T) {
	mappings := []ErrorMapping{
		{Err: errWidgetMissing, Status: http.StatusNotFound, Code: "WIDGET_NOT_FOUND"},
	}

	t.Run("mapped error", func(t *testing.T) {
		w, body := serve(t, fmt.Errorf("lookup: %w", errWidgetMissing), mappings)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "WIDGET_NOT_FOUND", body.Error.Code)
		assert.Equal(t, "widget missing", body.Error.Message)
	})

	t.Run("app error passes through", func(t *testing.T) {
		w, body := serve(t, apperrors.RateLimited(""), mappings)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Error.Code)
	})

	t.Run("generic kind", func(t *testing.T) {
		w, body := serve(t, fmt.Errorf("x: %w", apperrors.ErrBadRequest), mappings)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "REQUEST_FAILED", body.Error.Code)
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		w, body := serve(t, errors.New("db password leaked"), mappings)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "password")
	})
}
