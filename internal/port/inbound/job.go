package inbound

import (
	"context"
	"io"

	"github.com/relai/server/internal/model"
)

// JobDomain runs and tracks video generation jobs.
type JobDomain interface {
	// Submit validates the request and starts the pipeline in the background.
	Submit(ctx context.Context, req *model.GenerationRequest) (*model.Job, error)

	// GetStatus returns a snapshot of the job.
	GetStatus(ctx context.Context, id string) (*model.Job, error)

	// Cancel stops a running job, which then ends in the failed state.
	Cancel(ctx context.Context, id string) (*model.Job, error)

	// OpenResult opens the finished video of a completed job.
	OpenResult(ctx context.Context, id string) (*model.Artifact, io.ReadCloser, error)
}

// VoiceCatalog lists the narration voices offered to callers.
type VoiceCatalog interface {
	ListVoices(ctx context.Context) ([]*model.Voice, error)
}
