package job

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/relai/server/internal/domain/prompt"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
)

const videoContentType = "video/mp4"

// run is the background task of one job.
func (o *Orchestrator) run(ctx context.Context, handle *taskHandle, p *plan) {
	defer o.wg.Done()
	defer func() {
		o.mu.Lock()
		delete(o.tasks, p.jobID)
		o.mu.Unlock()
		handle.cancel(nil)
		close(handle.done)
	}()

	// Acquire semaphore
	select {
	case <-ctx.Done():
		o.fail(ctx, p.jobID, context.Cause(ctx))
		return
	case o.semaphore <- struct{}{}:
		defer func() { <-o.semaphore }()
	}

	if err := o.execute(ctx, p); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		o.fail(ctx, p.jobID, err)
	}
}

// execute drives the job from pending to completed.
func (o *Orchestrator) execute(ctx context.Context, p *plan) error {
	image, err := o.media.ReadAll(ctx, p.image)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	voice, music := o.runLegs(ctx, p)
	if err := context.Cause(ctx); err != nil {
		return err
	}

	sub := &model.VideoSubmission{
		Prompt:           prompt.Video(p.prompt, p.duration),
		Image:            image,
		ImageContentType: p.image.ContentType,
		ImageFilename:    p.image.Filename(),
		DurationSeconds:  p.duration,
		Resolution:       o.config.VideoResolution,
		FPS:              o.config.VideoFPS,
	}
	if voice.Present() {
		sub.Voice = voice.Data
	}
	if music.Present() {
		sub.Music = music.Data
	}

	remote, err := o.video.Submit(ctx, sub)
	if err != nil {
		return fmt.Errorf("submit video: %w", err)
	}

	if _, ok := o.advance(ctx, p.jobID, model.JobStateProcessing, func(j *model.Job) {
		j.RemoteHandle = remote
		j.VoiceAttached = sub.Voice != nil
		j.MusicAttached = sub.Music != nil
	}); !ok {
		return errors.New("job left pending before the video was submitted")
	}
	o.logger.Info("video submitted",
		zap.String("job_id", p.jobID),
		zap.String("remote_handle", remote),
		zap.Bool("voice", sub.Voice != nil),
		zap.Bool("music", sub.Music != nil))

	status, err := o.video.AwaitCompletion(ctx, remote)
	if err != nil {
		return fmt.Errorf("await video: %w", err)
	}
	if status.OutputURL == "" {
		return fmt.Errorf("video %s completed without output", remote)
	}

	data, err := o.video.Download(ctx, status.OutputURL)
	if err != nil {
		return fmt.Errorf("download video: %w", err)
	}

	artifact, err := o.media.Save(ctx, &inbound.SaveMediaInput{
		Data:        data,
		ContentType: videoContentType,
		Category:    model.MediaCategoryVideo,
	})
	if err != nil {
		return fmt.Errorf("store video: %w", err)
	}

	if _, ok := o.advance(ctx, p.jobID, model.JobStateCompleted, func(j *model.Job) {
		j.ResultLocation = artifact.ID
	}); ok {
		o.logger.Info("job completed",
			zap.String("job_id", p.jobID),
			zap.String("artifact_id", artifact.ID),
			zap.Int64("size", artifact.Size))
	}
	return nil
}
