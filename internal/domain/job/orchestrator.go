// Package job runs video generation jobs: validation, the best-effort voice
// and music legs, the video submission and the remote poll.
package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
	"github.com/relai/server/internal/port/outbound"
	"github.com/relai/server/internal/utils/metrics"
)

// taskHandle tracks one job's background goroutine.
type taskHandle struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// plan is a validated request with its resolved inputs.
type plan struct {
	jobID    string
	prompt   string
	duration int
	mode     model.VoiceMode
	image    *model.Artifact
	voiceRef *model.Artifact
}

// Orchestrator implements inbound.JobDomain.
type Orchestrator struct {
	jobs    outbound.JobStorePort
	media   inbound.MediaDomain
	video   outbound.VideoProviderPort
	voice   outbound.VoiceProviderPort
	music   outbound.MusicProviderPort
	config  *Config
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	semaphore chan struct{}

	mu      sync.Mutex
	tasks   map[string]*taskHandle
	stopped bool

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewOrchestrator creates a new job orchestrator.
func NewOrchestrator(
	jobs outbound.JobStorePort,
	media inbound.MediaDomain,
	video outbound.VideoProviderPort,
	voice outbound.VoiceProviderPort,
	music outbound.MusicProviderPort,
	config *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		jobs:      jobs,
		media:     media,
		video:     video,
		voice:     voice,
		music:     music,
		config:    config,
		metrics:   m,
		logger:    logger.Named("orchestrator"),
		now:       time.Now,
		semaphore: make(chan struct{}, maxConcurrent),
		tasks:     make(map[string]*taskHandle),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the janitor that evicts old terminal jobs.
func (o *Orchestrator) Start() {
	o.logger.Info("starting orchestrator",
		zap.Int("max_concurrent", cap(o.semaphore)),
		zap.Duration("retention", o.config.Retention))

	if o.config.Retention > 0 && o.config.CleanupInterval > 0 {
		o.wg.Add(1)
		go o.janitor()
	}
}

// Stop cancels running jobs and waits for every goroutine to exit.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.logger.Info("stopping orchestrator")

		o.mu.Lock()
		o.stopped = true
		for _, h := range o.tasks {
			h.cancel(errShutdown)
		}
		o.mu.Unlock()

		close(o.stopCh)
		o.wg.Wait()
		o.logger.Info("orchestrator stopped")
	})
}

// Submit validates req, records a pending job and starts its pipeline.
// Validation failures create no job.
func (o *Orchestrator) Submit(ctx context.Context, req *model.GenerationRequest) (*model.Job, error) {
	p, err := o.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	now := o.now()
	p.jobID = uuid.New().String()
	job := &model.Job{
		ID:        p.jobID,
		State:     model.JobStatePending,
		Prompt:    p.prompt,
		Duration:  p.duration,
		VoiceMode: p.mode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The task outlives the request, so it must not inherit its cancellation.
	taskCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	handle := &taskHandle{cancel: cancel, done: make(chan struct{})}

	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		cancel(errShutdown)
		return nil, ErrShuttingDown
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		o.mu.Unlock()
		cancel(nil)
		return nil, fmt.Errorf("create job: %w", err)
	}
	o.tasks[job.ID] = handle
	o.wg.Add(1)
	o.mu.Unlock()

	o.metrics.RecordJobSubmitted()
	o.logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("voice_mode", string(p.mode)),
		zap.Int("duration", p.duration))

	go o.run(taskCtx, handle, p)

	return job.Clone(), nil
}

func (o *Orchestrator) validate(ctx context.Context, req *model.GenerationRequest) (*plan, error) {
	p := &plan{
		prompt:   strings.TrimSpace(req.Prompt),
		duration: req.Duration,
		mode:     req.VoiceMode,
	}
	if p.prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if p.duration == 0 {
		p.duration = o.config.DefaultDuration
	}
	if p.duration < o.config.MinDuration || p.duration > o.config.MaxDuration {
		return nil, fmt.Errorf("%w: duration must be between %d and %d seconds",
			ErrInvalidRequest, o.config.MinDuration, o.config.MaxDuration)
	}
	if p.mode == "" {
		p.mode = model.VoiceModeAIGenerated
	}
	switch p.mode {
	case model.VoiceModeAIGenerated, model.VoiceModeUserProvided, model.VoiceModeCloned:
	default:
		return nil, fmt.Errorf("%w: unknown voice mode %q", ErrInvalidRequest, p.mode)
	}

	image, err := o.media.Resolve(ctx, req.ImageID, model.MediaCategoryImage)
	if errors.Is(err, inbound.ErrArtifactNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve image: %w", err)
	}
	p.image = image

	if p.mode.NeedsReference() {
		if req.VoiceID == "" {
			return nil, fmt.Errorf("%w: voice_file_id is required for %s voice", ErrVoiceNotFound, p.mode)
		}
		ref, err := o.media.Resolve(ctx, req.VoiceID, model.MediaCategoryVoice)
		if errors.Is(err, inbound.ErrArtifactNotFound) {
			return nil, ErrVoiceNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("resolve voice: %w", err)
		}
		p.voiceRef = ref
	}
	return p, nil
}

// GetStatus returns a snapshot of the job.
func (o *Orchestrator) GetStatus(ctx context.Context, id string) (*model.Job, error) {
	job, err := o.jobs.Get(ctx, id)
	if errors.Is(err, outbound.ErrJobRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Cancel signals the job's task and waits for it to record the failure.
func (o *Orchestrator) Cancel(ctx context.Context, id string) (*model.Job, error) {
	job, err := o.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State.IsTerminal() {
		return nil, ErrJobTerminal
	}

	o.mu.Lock()
	handle, running := o.tasks[id]
	o.mu.Unlock()

	if !running {
		// The task already exited; whatever it recorded stands.
		job, err = o.GetStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.State.IsTerminal() {
			return nil, ErrJobTerminal
		}
		return o.fail(ctx, id, errJobCancelled), nil
	}

	handle.cancel(errJobCancelled)
	o.logger.Info("job cancellation requested", zap.String("job_id", id))

	select {
	case <-handle.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	job, err = o.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State == model.JobStateCompleted {
		// The pipeline finished before it observed the signal.
		return nil, ErrJobTerminal
	}
	return job, nil
}

// OpenResult opens the finished video of a completed job.
func (o *Orchestrator) OpenResult(ctx context.Context, id string) (*model.Artifact, io.ReadCloser, error) {
	job, err := o.GetStatus(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.State != model.JobStateCompleted || job.ResultLocation == "" {
		return nil, nil, ErrResultNotReady
	}

	artifact, err := o.media.Resolve(ctx, job.ResultLocation, model.MediaCategoryVideo)
	if errors.Is(err, inbound.ErrArtifactNotFound) {
		return nil, nil, ErrResultNotReady
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve result: %w", err)
	}
	rc, err := o.media.Open(ctx, artifact)
	if err != nil {
		return nil, nil, fmt.Errorf("open result: %w", err)
	}
	return artifact, rc, nil
}

// ListVoices returns the narration voices offered by the speech provider.
func (o *Orchestrator) ListVoices(ctx context.Context) ([]*model.Voice, error) {
	return o.voice.ListVoices(ctx)
}

// Running returns the number of jobs with a live background task.
func (o *Orchestrator) Running() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tasks)
}

// advance applies a state transition. Transitions the lifecycle forbids, such
// as leaving a terminal state, are dropped.
func (o *Orchestrator) advance(ctx context.Context, id string, to model.JobState, mutate func(*model.Job)) (*model.Job, bool) {
	var from model.JobState
	job, err := o.jobs.Update(context.WithoutCancel(ctx), id, func(j *model.Job) error {
		from = j.State
		if err := Transition(j, to, o.now()); err != nil {
			return err
		}
		if mutate != nil {
			mutate(j)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			o.logger.Debug("transition dropped", zap.String("job_id", id), zap.Error(err))
		} else {
			o.logger.Error("update job", zap.String("job_id", id), zap.Error(err))
		}
		return job, false
	}

	o.logger.Debug("job transitioned",
		zap.String("job_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	if to.IsTerminal() {
		o.metrics.RecordJobFinished(string(to), job.UpdatedAt.Sub(job.CreatedAt))
	}
	return job, true
}

// fail records err as the job's failure detail.
func (o *Orchestrator) fail(ctx context.Context, id string, err error) *model.Job {
	detail := err.Error()
	if errors.Is(err, errJobCancelled) {
		detail = errJobCancelled.Error()
	}
	job, ok := o.advance(ctx, id, model.JobStateFailed, func(j *model.Job) {
		j.ErrorDetail = detail
	})
	if ok {
		o.logger.Warn("job failed", zap.String("job_id", id), zap.String("error", detail))
	}
	return job
}

// Compile-time checks
var (
	_ inbound.JobDomain    = (*Orchestrator)(nil)
	_ inbound.VoiceCatalog = (*Orchestrator)(nil)
)
