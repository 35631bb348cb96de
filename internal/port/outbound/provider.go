package outbound

import (
	"context"
	"errors"

	"github.com/relai/server/internal/model"
)

var (
	// ErrRemoteFailed is returned when a provider reports its job as failed.
	ErrRemoteFailed = errors.New("remote generation failed")

	// ErrRemoteTimeout is returned when a remote job exceeds its wait ceiling.
	ErrRemoteTimeout = errors.New("remote generation timed out")
)

// VideoProviderPort is the image-to-video generation service.
type VideoProviderPort interface {
	// Submit starts a remote generation and returns its handle.
	Submit(ctx context.Context, sub *model.VideoSubmission) (string, error)

	// Retrieve reports the current remote state once.
	Retrieve(ctx context.Context, handle string) (*model.RemoteStatus, error)

	// AwaitCompletion polls until the remote job completes, fails, the wait
	// ceiling elapses or ctx is done.
	AwaitCompletion(ctx context.Context, handle string) (*model.RemoteStatus, error)

	// Download fetches a finished output.
	Download(ctx context.Context, url string) ([]byte, error)
}

// MusicProviderPort is the background music generation service.
type MusicProviderPort interface {
	Submit(ctx context.Context, sub *model.MusicSubmission) (string, error)
	AwaitCompletion(ctx context.Context, generationID string) (*model.RemoteStatus, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// VoiceProviderPort is the text-to-speech service.
type VoiceProviderPort interface {
	// Synthesize streams speech for the request and returns the full buffer.
	Synthesize(ctx context.Context, req *model.VoiceSynthesis) ([]byte, error)

	// CloneVoice registers a voice from a sample and returns its voice id.
	CloneVoice(ctx context.Context, name string, sample []byte, filename string) (string, error)

	// ListVoices returns the voices available to the account.
	ListVoices(ctx context.Context) ([]*model.Voice, error)
}

// TextGenerationPort is a chat-style text completion service.
type TextGenerationPort interface {
	Complete(ctx context.Context, req *model.ChatRequest) (string, error)
}
