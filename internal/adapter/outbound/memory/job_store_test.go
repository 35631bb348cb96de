package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/outbound"
)

func TestJobStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()

	job := &model.Job{ID: "j1", State: model.JobStatePending, CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, job))
	assert.Error(t, s.Create(ctx, job), "duplicate id")

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatePending, got.State)

	// Mutating the returned copy never touches the table.
	got.State = model.JobStateFailed
	again, _ := s.Get(ctx, "j1")
	assert.Equal(t, model.JobStatePending, again.State)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, outbound.ErrJobRecordNotFound)
}

func TestJobStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()
	require.NoError(t, s.Create(ctx, &model.Job{ID: "j1", State: model.JobStatePending}))

	updated, err := s.Update(ctx, "j1", func(j *model.Job) error {
		j.State = model.JobStateProcessing
		j.RemoteHandle = "vid_1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "vid_1", updated.RemoteHandle)

	rejected := errors.New("rejected")
	_, err = s.Update(ctx, "j1", func(j *model.Job) error {
		j.State = model.JobStateFailed
		return rejected
	})
	assert.ErrorIs(t, err, rejected)

	got, _ := s.Get(ctx, "j1")
	assert.Equal(t, model.JobStateProcessing, got.State, "failed update must not commit")

	_, err = s.Update(ctx, "missing", func(*model.Job) error { return nil })
	assert.ErrorIs(t, err, outbound.ErrJobRecordNotFound)
}

func TestJobStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()
	require.NoError(t, s.Create(ctx, &model.Job{ID: "j1"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Update(ctx, "j1", func(j *model.Job) error {
				j.Duration++
				return nil
			})
			_, _ = s.Get(ctx, "j1")
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, "j1")
	assert.Equal(t, 50, got.Duration)
}

func TestJobStore_DeleteTerminalBefore(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	require.NoError(t, s.Create(ctx, &model.Job{ID: "old-done", State: model.JobStateCompleted, UpdatedAt: old}))
	require.NoError(t, s.Create(ctx, &model.Job{ID: "old-failed", State: model.JobStateFailed, UpdatedAt: old}))
	require.NoError(t, s.Create(ctx, &model.Job{ID: "old-running", State: model.JobStateProcessing, UpdatedAt: old}))
	require.NoError(t, s.Create(ctx, &model.Job{ID: "new-done", State: model.JobStateCompleted, UpdatedAt: now}))

	removed, err := s.DeleteTerminalBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, s.Len())

	_, err = s.Get(ctx, "old-running")
	assert.NoError(t, err, "non-terminal jobs are never evicted")
}
