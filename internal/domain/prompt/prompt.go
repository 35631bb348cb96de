// Package prompt builds the deterministic texts sent to the media providers.
package prompt

import (
	"fmt"
	"strings"
)

const videoTemplate = `Create a high-quality, professional video for social media.

Scene Description: %s

Technical Requirements:
- Duration: %d seconds
- Maintain the person's appearance, clothing, and features exactly as shown in the reference image
- Professional cinematography with smooth camera movements
- High-quality lighting (cinematic, well-lit)
- Natural movements and realistic physics
- Sharp focus and 1080p quality
- Maintain continuity throughout the video

Style: Professional social media content, engaging, dynamic, visually appealing`

// Video wraps the user's scene with fidelity and quality instructions.
func Video(scene string, durationSeconds int) string {
	return fmt.Sprintf(videoTemplate, strings.TrimSpace(scene), durationSeconds)
}

// Narration turns a scene prompt into a short spoken script.
func Narration(scene string) string {
	scene = strings.TrimSpace(scene)
	lower := strings.ToLower(scene)
	switch {
	case strings.Contains(lower, "gym") || strings.Contains(lower, "workout"):
		return "Hey everyone! Today I'm showing you an amazing workout. " + scene + ". Let's get started and crush this training session!"
	case strings.Contains(lower, "exercise"):
		return "What's up! Ready for today's exercise routine? " + scene + ". Let's do this together!"
	default:
		return "Hello! Check out what I've got for you today. " + scene + ". Stay tuned and don't forget to like and subscribe!"
	}
}

type musicStyle struct {
	keywords []string
	prompt   string
}

// musicStyles is checked in order; the first keyword hit wins.
var musicStyles = []musicStyle{
	{
		keywords: []string{"gym", "workout", "exercise", "fitness", "training"},
		prompt:   "Energetic upbeat electronic gym workout music, motivational, powerful beats, 128 BPM, modern EDM style",
	},
	{
		keywords: []string{"luxury", "miami", "beach", "lifestyle"},
		prompt:   "Smooth modern hip-hop beat, luxury lifestyle vibes, clean production, laid-back but confident",
	},
	{
		keywords: []string{"tutorial", "how to", "guide", "learn", "explain"},
		prompt:   "Light corporate background music, clean and professional, subtle melody, not distracting",
	},
	{
		keywords: []string{"funny", "comedy", "joke", "fun"},
		prompt:   "Playful upbeat music, fun and quirky, lighthearted melody, modern pop elements",
	},
	{
		keywords: []string{"inspire", "motivation", "success", "dream"},
		prompt:   "Inspirational uplifting music, emotional but powerful, modern cinematic elements, building progression",
	},
}

const defaultMusicStyle = "Modern versatile background music, clean production, energetic but not overpowering, perfect for social media"

// Music picks a background track description from keywords in the scene.
func Music(scene string) string {
	lower := strings.ToLower(scene)
	for _, style := range musicStyles {
		for _, kw := range style.keywords {
			if strings.Contains(lower, kw) {
				return style.prompt
			}
		}
	}
	return defaultMusicStyle
}
