package job

import (
	"time"

	"github.com/relai/server/internal/model"
)

// Config holds job orchestration configuration.
type Config struct {
	// MaxConcurrent bounds pipelines running at once. Jobs waiting for a
	// slot stay pending.
	MaxConcurrent int

	// Retention is how long terminal jobs stay visible before eviction.
	Retention time.Duration

	// CleanupInterval is how often the janitor looks for evictable jobs.
	CleanupInterval time.Duration

	DefaultDuration int
	MinDuration     int
	MaxDuration     int

	VideoResolution string
	VideoFPS        int

	// VoiceSettings tune narration; nil uses the voice client defaults.
	VoiceSettings *model.VoiceSettings
}

// DefaultConfig returns default job configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent:   10,
		Retention:       24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		DefaultDuration: 30,
		MinDuration:     5,
		MaxDuration:     60,
		VideoResolution: "1080p",
		VideoFPS:        30,
		VoiceSettings: &model.VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.5,
			SpeakerBoost:    true,
		},
	}
}
