package job

import (
	"fmt"
	"time"

	"github.com/relai/server/internal/model"
)

// transitions lists the allowed next states. Terminal states have none.
var transitions = map[model.JobState][]model.JobState{
	model.JobStatePending:    {model.JobStateProcessing, model.JobStateFailed},
	model.JobStateProcessing: {model.JobStateCompleted, model.JobStateFailed},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to model.JobState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves job to state to, stamping timestamps.
func Transition(job *model.Job, to model.JobState, now time.Time) error {
	if !CanTransition(job.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.State, to)
	}
	job.State = to
	job.UpdatedAt = now
	if to.IsTerminal() {
		t := now
		job.CompletedAt = &t
	}
	return nil
}
