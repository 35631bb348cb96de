package job

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relai/server/internal/domain/prompt"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
)

// Leg names, used in logs and the degraded counter.
const (
	LegVoice = "voice"
	LegMusic = "music"
)

const (
	audioContentType  = "audio/mpeg"
	clonedVoicePrefix = "user_voice_"
)

// LegOutcome is the result of a best-effort leg: bytes when present, the
// reason when absent.
type LegOutcome struct {
	Leg      string
	Data     []byte
	Artifact *model.Artifact
	Reason   string
}

// Present reports whether the leg produced audio.
func (l *LegOutcome) Present() bool {
	return l != nil && len(l.Data) > 0
}

func present(leg string, data []byte) *LegOutcome {
	return &LegOutcome{Leg: leg, Data: data}
}

func absent(leg string, err error) *LegOutcome {
	return &LegOutcome{Leg: leg, Reason: err.Error()}
}

// runLegs runs the voice and music legs concurrently and returns once both
// have finished. Leg failures never fail the group.
func (o *Orchestrator) runLegs(ctx context.Context, p *plan) (voice, music *LegOutcome) {
	var g errgroup.Group
	g.Go(func() error {
		voice = o.voiceLeg(ctx, p)
		return nil
	})
	g.Go(func() error {
		music = o.musicLeg(ctx, p)
		return nil
	})
	_ = g.Wait()

	for _, out := range []*LegOutcome{voice, music} {
		if out.Present() {
			continue
		}
		o.metrics.RecordLegDegraded(out.Leg)
		o.logger.Warn("leg degraded, continuing without it",
			zap.String("job_id", p.jobID),
			zap.String("leg", out.Leg),
			zap.String("reason", out.Reason))
	}
	return voice, music
}

func (o *Orchestrator) voiceLeg(ctx context.Context, p *plan) *LegOutcome {
	switch p.mode {
	case model.VoiceModeUserProvided:
		data, err := o.media.ReadAll(ctx, p.voiceRef)
		if err != nil {
			return absent(LegVoice, fmt.Errorf("read voice sample: %w", err))
		}
		out := present(LegVoice, data)
		out.Artifact = p.voiceRef
		return out

	case model.VoiceModeCloned:
		sample, err := o.media.ReadAll(ctx, p.voiceRef)
		if err != nil {
			return absent(LegVoice, fmt.Errorf("read voice sample: %w", err))
		}
		name := clonedVoicePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
		voiceID, err := o.voice.CloneVoice(ctx, name, sample, p.voiceRef.Filename())
		if err != nil {
			return absent(LegVoice, fmt.Errorf("clone voice: %w", err))
		}
		o.logger.Debug("voice cloned", zap.String("job_id", p.jobID), zap.String("voice_id", voiceID))
		return o.synthesize(ctx, p, voiceID)

	default:
		return o.synthesize(ctx, p, "")
	}
}

// synthesize narrates the scene; an empty voiceID uses the provider default.
func (o *Orchestrator) synthesize(ctx context.Context, p *plan, voiceID string) *LegOutcome {
	data, err := o.voice.Synthesize(ctx, &model.VoiceSynthesis{
		Text:     prompt.Narration(p.prompt),
		VoiceID:  voiceID,
		Settings: o.config.VoiceSettings,
	})
	if err != nil {
		return absent(LegVoice, fmt.Errorf("synthesize voice: %w", err))
	}
	out := present(LegVoice, data)
	out.Artifact = o.persist(ctx, p, model.MediaCategoryVoice, data, audioContentType)
	return out
}

func (o *Orchestrator) musicLeg(ctx context.Context, p *plan) *LegOutcome {
	handle, err := o.music.Submit(ctx, &model.MusicSubmission{
		Prompt:          prompt.Music(p.prompt),
		DurationSeconds: p.duration,
		Instrumental:    true,
	})
	if err != nil {
		return absent(LegMusic, fmt.Errorf("submit music: %w", err))
	}

	status, err := o.music.AwaitCompletion(ctx, handle)
	if err != nil {
		return absent(LegMusic, fmt.Errorf("await music: %w", err))
	}
	if status.OutputURL == "" {
		return absent(LegMusic, fmt.Errorf("music %s completed without audio", handle))
	}

	data, err := o.music.Download(ctx, status.OutputURL)
	if err != nil {
		return absent(LegMusic, fmt.Errorf("download music: %w", err))
	}
	out := present(LegMusic, data)
	out.Artifact = o.persist(ctx, p, model.MediaCategoryMusic, data, audioContentType)
	return out
}

// persist stores generated audio. Failure only loses the stored copy.
func (o *Orchestrator) persist(ctx context.Context, p *plan, category model.MediaCategory, data []byte, contentType string) *model.Artifact {
	artifact, err := o.media.Save(ctx, &inbound.SaveMediaInput{
		Data:        data,
		ContentType: contentType,
		Category:    category,
	})
	if err != nil {
		o.logger.Warn("failed to persist generated audio",
			zap.String("job_id", p.jobID),
			zap.String("category", string(category)),
			zap.Error(err))
		return nil
	}
	return artifact
}
