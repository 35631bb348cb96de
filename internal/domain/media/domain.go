// Package media implements the Media Store: immutable, id-addressed blobs
// grouped by category.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
	"github.com/relai/server/internal/port/outbound"
	"github.com/relai/server/internal/utils/metrics"
)

const (
	octetStream  = "application/octet-stream"
	fallbackExt  = "bin"
	maxExtLength = 8
)

// Domain implements inbound.MediaDomain over a blob store.
type Domain struct {
	store   outbound.BlobStorePort
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewDomain creates a new media domain.
func NewDomain(store outbound.BlobStorePort, m *metrics.Metrics, logger *zap.Logger) *Domain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Domain{
		store:   store,
		metrics: m,
		logger:  logger.Named("media"),
		now:     time.Now,
	}
}

// Save stores data under a fresh id in the requested category.
func (d *Domain) Save(ctx context.Context, in *inbound.SaveMediaInput) (*model.Artifact, error) {
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}
	if len(in.Data) == 0 {
		return nil, ErrEmptyMedia
	}

	contentType := baseMediaType(in.ContentType)
	var sniffed *mimetype.MIME
	if contentType == "" || contentType == octetStream {
		sniffed = mimetype.Detect(in.Data)
		contentType = baseMediaType(sniffed.String())
	}
	if !in.Category.Accepts(contentType) {
		return nil, fmt.Errorf("%w: %s file required, got %q", ErrInvalidMediaType, in.Category, contentType)
	}

	ext := extensionFromFilename(in.Filename)
	if ext == "" {
		if sniffed == nil {
			sniffed = mimetype.Detect(in.Data)
		}
		ext = cleanExtension(sniffed.Extension())
	}
	if ext == "" {
		ext = fallbackExt
	}

	artifact := &model.Artifact{
		ID:          uuid.New().String(),
		Category:    in.Category,
		Extension:   ext,
		ContentType: contentType,
		Size:        int64(len(in.Data)),
		CreatedAt:   d.now(),
	}
	artifact.Key = objectKey(artifact.Category, artifact.Filename())

	if err := d.store.Put(ctx, artifact.Key, in.Data, contentType); err != nil {
		return nil, fmt.Errorf("store %s: %w", in.Category, err)
	}
	d.metrics.RecordMediaStored(string(in.Category), len(in.Data))

	d.logger.Debug("media saved",
		zap.String("id", artifact.ID),
		zap.String("category", string(artifact.Category)),
		zap.String("content_type", contentType),
		zap.Int64("size", artifact.Size),
	)
	return artifact, nil
}

// Resolve finds a stored artifact by id within a category.
func (d *Domain) Resolve(ctx context.Context, id string, category model.MediaCategory) (*model.Artifact, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	// Ids are always generated uuids; anything else cannot name an artifact.
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrArtifactNotFound
	}

	key, err := d.store.FindByPrefix(ctx, objectKey(category, id+"."))
	if errors.Is(err, outbound.ErrBlobNotFound) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s %s: %w", category, id, err)
	}

	artifact := &model.Artifact{
		ID:        id,
		Category:  category,
		Extension: strings.TrimPrefix(path.Ext(key), "."),
		Key:       key,
	}

	rc, err := d.Open(ctx, artifact)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return nil, fmt.Errorf("detect %s %s: %w", category, id, err)
	}
	artifact.ContentType = baseMediaType(mt.String())
	return artifact, nil
}

// Open streams the artifact's bytes.
func (d *Domain) Open(ctx context.Context, artifact *model.Artifact) (io.ReadCloser, error) {
	rc, err := d.store.Open(ctx, artifact.Key)
	if errors.Is(err, outbound.ErrBlobNotFound) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", artifact.Key, err)
	}
	return rc, nil
}

// ReadAll loads the artifact's bytes into memory.
func (d *Domain) ReadAll(ctx context.Context, artifact *model.Artifact) ([]byte, error) {
	rc, err := d.Open(ctx, artifact)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", artifact.Key, err)
	}
	return data, nil
}

func objectKey(category model.MediaCategory, name string) string {
	return string(category) + "/" + name
}

// baseMediaType strips parameters such as charset and lowercases the type.
func baseMediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func extensionFromFilename(name string) string {
	if name == "" {
		return ""
	}
	return cleanExtension(path.Ext(strings.ReplaceAll(name, "\\", "/")))
}

// cleanExtension keeps short alphanumeric extensions only, so an upload name
// can never shape the storage key.
func cleanExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" || len(ext) > maxExtLength {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// Compile-time check
var _ inbound.MediaDomain = (*Domain)(nil)
