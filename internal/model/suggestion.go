package model

// Suggestion is one generated video idea.
type Suggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Duration    int      `json:"duration"`
	Platforms   []string `json:"platforms,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
	Hook        string   `json:"hook,omitempty"`
}
