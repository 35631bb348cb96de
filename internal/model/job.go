package model

import (
	"strings"
	"time"
)

// JobState is the lifecycle state of a generation job.
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// VoiceMode selects where the narration track comes from.
type VoiceMode string

const (
	VoiceModeAIGenerated  VoiceMode = "ai-generated"
	VoiceModeUserProvided VoiceMode = "user-provided"
	VoiceModeCloned       VoiceMode = "cloned"
)

// ParseVoiceMode accepts the canonical names and the short web client aliases.
func ParseVoiceMode(s string) (VoiceMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ai", "ai-generated":
		return VoiceModeAIGenerated, true
	case "custom", "user-provided":
		return VoiceModeUserProvided, true
	case "clone", "cloned":
		return VoiceModeCloned, true
	}
	return "", false
}

// NeedsReference reports whether the mode requires a stored voice sample.
func (m VoiceMode) NeedsReference() bool {
	return m == VoiceModeUserProvided || m == VoiceModeCloned
}

// Job tracks one end-to-end video generation.
type Job struct {
	ID             string     `json:"video_id"`
	State          JobState   `json:"status"`
	RemoteHandle   string     `json:"remote_handle,omitempty"`
	ResultLocation string     `json:"result_location,omitempty"`
	ErrorDetail    string     `json:"error,omitempty"`
	Prompt         string     `json:"prompt"`
	Duration       int        `json:"duration"`
	VoiceMode      VoiceMode  `json:"voice_mode"`
	VoiceAttached  bool       `json:"voice_attached"`
	MusicAttached  bool       `json:"music_attached"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a copy safe to hand out of the job table.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// GenerationRequest is a caller's request for a new video.
type GenerationRequest struct {
	ImageID   string
	Prompt    string
	VoiceMode VoiceMode
	VoiceID   string
	Duration  int
}
