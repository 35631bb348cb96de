package model

import (
	"strings"
	"time"
)

// MediaCategory groups stored artifacts by what they hold.
type MediaCategory string

const (
	MediaCategoryImage MediaCategory = "image"
	MediaCategoryVoice MediaCategory = "voice"
	MediaCategoryMusic MediaCategory = "music"
	MediaCategoryVideo MediaCategory = "video"
)

// Valid reports whether c is a known category.
func (c MediaCategory) Valid() bool {
	switch c {
	case MediaCategoryImage, MediaCategoryVoice, MediaCategoryMusic, MediaCategoryVideo:
		return true
	}
	return false
}

// ContentTypePrefix returns the media type family accepted for c.
func (c MediaCategory) ContentTypePrefix() string {
	switch c {
	case MediaCategoryImage:
		return "image/"
	case MediaCategoryVoice, MediaCategoryMusic:
		return "audio/"
	case MediaCategoryVideo:
		return "video/"
	}
	return ""
}

// Accepts reports whether contentType belongs to the category's family.
func (c MediaCategory) Accepts(contentType string) bool {
	prefix := c.ContentTypePrefix()
	return prefix != "" && strings.HasPrefix(strings.ToLower(contentType), prefix)
}

// Artifact is an immutable stored blob.
type Artifact struct {
	ID          string        `json:"id"`
	Category    MediaCategory `json:"category"`
	Extension   string        `json:"extension"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
	Key         string        `json:"key"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Filename returns the artifact file name, id plus extension.
func (a *Artifact) Filename() string {
	if a.Extension == "" {
		return a.ID
	}
	return a.ID + "." + a.Extension
}
