package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Empty(t, JobID(ctx))
}

func TestJobID(t *testing.T) {
	ctx := WithJobID(WithRequestID(context.Background(), "req-1"), "job-1")
	assert.Equal(t, "job-1", JobID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestNilContext(t *testing.T) {
	//nolint:staticcheck
	assert.Empty(t, RequestID(nil))
	//nolint:staticcheck
	ctx := WithJobID(nil, "job-2")
	assert.Equal(t, "job-2", JobID(ctx))
}
