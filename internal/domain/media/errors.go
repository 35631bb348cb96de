package media

import (
	"errors"

	"github.com/relai/server/internal/port/inbound"
)

var (
	// ErrInvalidMediaType is returned when content does not match its category.
	ErrInvalidMediaType = errors.New("invalid media type")

	// ErrInvalidCategory is returned for an unknown media category.
	ErrInvalidCategory = errors.New("invalid media category")

	// ErrEmptyMedia is returned when saving zero bytes.
	ErrEmptyMedia = errors.New("media content is empty")

	// ErrArtifactNotFound is returned when no artifact matches an id.
	ErrArtifactNotFound = inbound.ErrArtifactNotFound
)
