package inbound

import (
	"github.com/gin-gonic/gin"

	"github.com/relai/server/internal/model"
)

// --- Request/Response Types ---

// UploadOutput is returned for a stored upload.
type UploadOutput struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// GenerateVideoInput is the body of a video generation request.
type GenerateVideoInput struct {
	UserImageID string `json:"user_image_id" binding:"required"`
	Prompt      string `json:"prompt" binding:"required"`
	VoiceType   string `json:"voice_type,omitempty"`
	VoiceFileID string `json:"voice_file_id,omitempty"`
	Duration    int    `json:"duration,omitempty"`
}

// GenerateVideoOutput acknowledges an accepted job.
type GenerateVideoOutput struct {
	VideoID string         `json:"video_id"`
	Status  model.JobState `json:"status"`
	Message string         `json:"message"`
}

// GenerateSuggestionsInput is the body of a suggestion request.
type GenerateSuggestionsInput struct {
	Context         string `json:"context" binding:"required"`
	UserPreferences string `json:"user_preferences,omitempty"`
}

// GenerateSuggestionsOutput lists generated ideas.
type GenerateSuggestionsOutput struct {
	Suggestions []*model.Suggestion `json:"suggestions"`
}

// EnhancePromptInput is the body of a prompt rewrite request.
type EnhancePromptInput struct {
	Prompt string `json:"prompt" binding:"required"`
}

// EnhancePromptOutput carries the rewritten prompt.
type EnhancePromptOutput struct {
	Prompt string `json:"prompt"`
}

// VoicesOutput lists narration voices.
type VoicesOutput struct {
	Voices []*model.Voice `json:"voices"`
}

// --- HTTP Ports ---

// MediaHttpPort defines upload HTTP handlers.
type MediaHttpPort interface {
	UploadImage(c *gin.Context)
	UploadVoice(c *gin.Context)
}

// VideoHttpPort defines video job HTTP handlers.
type VideoHttpPort interface {
	Generate(c *gin.Context)
	GetStatus(c *gin.Context)
	Cancel(c *gin.Context)
	Download(c *gin.Context)
	ListVoices(c *gin.Context)
}

// SuggestionHttpPort defines suggestion HTTP handlers.
type SuggestionHttpPort interface {
	Generate(c *gin.Context)
	Enhance(c *gin.Context)
}
