package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/relai/server/internal/model"
)

// ErrJobRecordNotFound is returned by job stores for unknown ids.
var ErrJobRecordNotFound = errors.New("job record not found")

// JobStorePort is the concurrency-safe job table.
// Every method returns copies; callers never share a record with the store.
type JobStorePort interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)

	// Update applies fn to the stored record under the store's lock.
	// If fn returns an error the record is left unchanged.
	Update(ctx context.Context, id string, fn func(job *model.Job) error) (*model.Job, error)

	// DeleteTerminalBefore evicts terminal jobs last updated before cutoff.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}
