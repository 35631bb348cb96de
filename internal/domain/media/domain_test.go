package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
	"github.com/relai/server/internal/port/outbound"
	"github.com/relai/server/internal/utils/metrics"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	mp3Bytes = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), bytes.Repeat([]byte{0}, 32)...)
)

// --- Fakes and mocks ---

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *memBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, outbound.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memBlobStore) FindByPrefix(_ context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", outbound.ErrBlobNotFound
	}
	sort.Strings(keys)
	return keys[0], nil
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockBlobStore) FindByPrefix(ctx context.Context, prefix string) (string, error) {
	args := m.Called(ctx, prefix)
	return args.String(0), args.Error(1)
}

var _ outbound.BlobStorePort = (*MockBlobStore)(nil)

// --- Tests ---

func TestDomain_SaveResolveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemBlobStore()
	d := NewDomain(store, nil, nil)

	saved, err := d.Save(ctx, &inbound.SaveMediaInput{
		Data:        pngBytes,
		ContentType: "image/png",
		Filename:    "me.PNG",
		Category:    model.MediaCategoryImage,
	})
	require.NoError(t, err)
	assert.Equal(t, "png", saved.Extension)
	assert.Equal(t, "image/"+saved.ID+".png", saved.Key)
	assert.Equal(t, int64(len(pngBytes)), saved.Size)

	resolved, err := d.Resolve(ctx, saved.ID, model.MediaCategoryImage)
	require.NoError(t, err)
	assert.Equal(t, saved.Key, resolved.Key)
	assert.Equal(t, "image/png", resolved.ContentType)

	data, err := d.ReadAll(ctx, resolved)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestDomain_SaveValidation(t *testing.T) {
	ctx := context.Background()
	d := NewDomain(newMemBlobStore(), nil, nil)

	tests := []struct {
		name    string
		in      *inbound.SaveMediaInput
		wantErr error
	}{
		{
			name:    "image category rejects audio",
			in:      &inbound.SaveMediaInput{Data: mp3Bytes, ContentType: "audio/mpeg", Category: model.MediaCategoryImage},
			wantErr: ErrInvalidMediaType,
		},
		{
			name:    "voice category rejects image",
			in:      &inbound.SaveMediaInput{Data: pngBytes, ContentType: "image/png", Category: model.MediaCategoryVoice},
			wantErr: ErrInvalidMediaType,
		},
		{
			name:    "sniffed type must match category",
			in:      &inbound.SaveMediaInput{Data: pngBytes, Category: model.MediaCategoryVoice},
			wantErr: ErrInvalidMediaType,
		},
		{
			name:    "empty data",
			in:      &inbound.SaveMediaInput{ContentType: "image/png", Category: model.MediaCategoryImage},
			wantErr: ErrEmptyMedia,
		},
		{
			name:    "unknown category",
			in:      &inbound.SaveMediaInput{Data: pngBytes, ContentType: "image/png", Category: "document"},
			wantErr: ErrInvalidCategory,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Save(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDomain_SaveSniffsOctetStream(t *testing.T) {
	d := NewDomain(newMemBlobStore(), nil, nil)

	saved, err := d.Save(context.Background(), &inbound.SaveMediaInput{
		Data:        mp3Bytes,
		ContentType: "application/octet-stream",
		Category:    model.MediaCategoryVoice,
	})
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", saved.ContentType)
	assert.Equal(t, "mp3", saved.Extension)
}

func TestDomain_SaveIgnoresUnsafeExtension(t *testing.T) {
	d := NewDomain(newMemBlobStore(), nil, nil)

	saved, err := d.Save(context.Background(), &inbound.SaveMediaInput{
		Data:        pngBytes,
		ContentType: "image/png; charset=binary",
		Filename:    "x.p/../ng",
		Category:    model.MediaCategoryImage,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", saved.ContentType)
	assert.Equal(t, "png", saved.Extension)
}

func TestDomain_SaveDistinctIDs(t *testing.T) {
	d := NewDomain(newMemBlobStore(), nil, nil)
	in := &inbound.SaveMediaInput{Data: pngBytes, ContentType: "image/png", Category: model.MediaCategoryImage}

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := d.Save(context.Background(), in)
			if assert.NoError(t, err) {
				ids[i] = a.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDomain_SaveRecordsMetrics(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	d := NewDomain(newMemBlobStore(), m, nil)

	_, err := d.Save(context.Background(), &inbound.SaveMediaInput{
		Data: pngBytes, ContentType: "image/png", Category: model.MediaCategoryImage,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(len(pngBytes)), testutil.ToFloat64(m.MediaStoredBytes.WithLabelValues("image")))
}

func TestDomain_SaveStoreError(t *testing.T) {
	store := new(MockBlobStore)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, "image/png").Return(errors.New("disk full"))
	d := NewDomain(store, nil, nil)

	_, err := d.Save(context.Background(), &inbound.SaveMediaInput{
		Data: pngBytes, ContentType: "image/png", Category: model.MediaCategoryImage,
	})
	assert.ErrorContains(t, err, "disk full")
	store.AssertExpectations(t)
}

func TestDomain_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		d := NewDomain(newMemBlobStore(), nil, nil)
		_, err := d.Resolve(ctx, "6f1c1c8e-8f7a-4a43-9d25-3c6f0f7f8a11", model.MediaCategoryImage)
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})

	t.Run("malformed id never hits the store", func(t *testing.T) {
		store := new(MockBlobStore)
		d := NewDomain(store, nil, nil)
		_, err := d.Resolve(ctx, "../../etc/passwd", model.MediaCategoryImage)
		assert.ErrorIs(t, err, ErrArtifactNotFound)
		store.AssertNotCalled(t, "FindByPrefix", mock.Anything, mock.Anything)
	})

	t.Run("wrong category", func(t *testing.T) {
		store := newMemBlobStore()
		d := NewDomain(store, nil, nil)
		saved, err := d.Save(ctx, &inbound.SaveMediaInput{Data: pngBytes, ContentType: "image/png", Category: model.MediaCategoryImage})
		require.NoError(t, err)

		_, err = d.Resolve(ctx, saved.ID, model.MediaCategoryVoice)
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})

	t.Run("backend error is wrapped", func(t *testing.T) {
		store := new(MockBlobStore)
		store.On("FindByPrefix", mock.Anything, mock.Anything).Return("", errors.New("timeout"))
		d := NewDomain(store, nil, nil)
		_, err := d.Resolve(ctx, "6f1c1c8e-8f7a-4a43-9d25-3c6f0f7f8a11", model.MediaCategoryImage)
		assert.ErrorContains(t, err, "timeout")
		assert.NotErrorIs(t, err, ErrArtifactNotFound)
	})
}

func TestCleanExtension(t *testing.T) {
	assert.Equal(t, "mp4", cleanExtension(".MP4"))
	assert.Equal(t, "", cleanExtension(".tar/gz"))
	assert.Equal(t, "", cleanExtension(".averyverylongext"))
	assert.Equal(t, "", cleanExtension(""))
}
