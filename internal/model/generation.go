package model

// RemoteState is a provider job state normalised across vendors.
type RemoteState string

const (
	RemoteStatePending   RemoteState = "pending"
	RemoteStateCompleted RemoteState = "completed"
	RemoteStateFailed    RemoteState = "failed"
)

// RemoteStatus is one observation of a provider-side job.
type RemoteStatus struct {
	Handle    string
	State     RemoteState
	OutputURL string
	Message   string
}

// VideoSubmission holds the inputs for an image-to-video request.
// Voice and Music are nil when the corresponding leg produced nothing.
type VideoSubmission struct {
	Prompt           string
	Image            []byte
	ImageContentType string
	ImageFilename    string
	Voice            []byte
	Music            []byte
	DurationSeconds  int
	Resolution       string
	FPS              int
}

// MusicSubmission holds the inputs for a background track request.
type MusicSubmission struct {
	Prompt          string
	DurationSeconds int
	Instrumental    bool
	Style           string
}

// VoiceSettings tunes text-to-speech output.
type VoiceSettings struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64
	SpeakerBoost    bool
}

// VoiceSynthesis is a single text-to-speech request.
type VoiceSynthesis struct {
	Text     string
	VoiceID  string
	ModelID  string
	Settings *VoiceSettings
}

// Voice is a voice offered by the speech provider.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// ChatMessage is one message of a text generation request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single-shot text generation request.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}
