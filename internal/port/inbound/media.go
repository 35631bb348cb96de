package inbound

import (
	"context"
	"errors"
	"io"

	"github.com/relai/server/internal/model"
)

// ErrArtifactNotFound is returned when no stored artifact matches an id.
var ErrArtifactNotFound = errors.New("media artifact not found")

// SaveMediaInput is an artifact to be stored.
type SaveMediaInput struct {
	Data        []byte
	ContentType string
	Filename    string
	Category    model.MediaCategory
}

// MediaDomain stores and resolves media artifacts.
type MediaDomain interface {
	Save(ctx context.Context, in *SaveMediaInput) (*model.Artifact, error)
	Resolve(ctx context.Context, id string, category model.MediaCategory) (*model.Artifact, error)
	Open(ctx context.Context, artifact *model.Artifact) (io.ReadCloser, error)
	ReadAll(ctx context.Context, artifact *model.Artifact) ([]byte, error)
}
