// Package memory holds process-lifetime stores used when no external backend
// is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/outbound"
)

// JobStore is an RWMutex-guarded job table.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewJobStore creates an empty job table.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*model.Job)}
}

// Create inserts a new job. Ids must be unique.
func (s *JobStore) Create(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a copy of the job.
func (s *JobStore) Get(_ context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, outbound.ErrJobRecordNotFound
	}
	return job.Clone(), nil
}

// Update applies fn to a working copy and commits it only if fn succeeds.
func (s *JobStore) Update(_ context.Context, id string, fn func(job *model.Job) error) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, outbound.ErrJobRecordNotFound
	}
	working := job.Clone()
	if err := fn(working); err != nil {
		return job.Clone(), err
	}
	s.jobs[id] = working
	return working.Clone(), nil
}

// DeleteTerminalBefore evicts terminal jobs whose last update is before cutoff.
func (s *JobStore) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.State.IsTerminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Compile-time check
var _ outbound.JobStorePort = (*JobStore)(nil)
