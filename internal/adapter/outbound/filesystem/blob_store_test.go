package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relai/server/internal/port/outbound"
)

func newStore(t *testing.T) *BlobStore {
	t.Helper()
	s, err := NewBlobStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func TestNewBlobStore(t *testing.T) {
	_, err := NewBlobStore("  ")
	assert.Error(t, err)

	root := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err = NewBlobStore(root)
	require.NoError(t, err)
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBlobStore_PutOpen(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Put(ctx, "image/abc.png", []byte("png-bytes"), "image/png"))

	rc, err := s.Open(ctx, "image/abc.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	_, err = s.Open(ctx, "image/missing.png")
	assert.ErrorIs(t, err, outbound.ErrBlobNotFound)
}

func TestBlobStore_FindByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Put(ctx, "voice/v1.mp3", []byte("a"), "audio/mpeg"))
	require.NoError(t, s.Put(ctx, "voice/v10.wav", []byte("b"), "audio/wav"))

	key, err := s.FindByPrefix(ctx, "voice/v1.")
	require.NoError(t, err)
	assert.Equal(t, "voice/v1.mp3", key)

	key, err = s.FindByPrefix(ctx, "voice/")
	require.NoError(t, err)
	assert.Equal(t, "voice/v1.mp3", key)

	_, err = s.FindByPrefix(ctx, "voice/v2.")
	assert.ErrorIs(t, err, outbound.ErrBlobNotFound)

	_, err = s.FindByPrefix(ctx, "image/v1.")
	assert.ErrorIs(t, err, outbound.ErrBlobNotFound)
}

func TestBlobStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	assert.Error(t, s.Put(ctx, "../escape.txt", []byte("x"), ""))
	assert.Error(t, s.Put(ctx, "", []byte("x"), ""))
	_, err := s.Open(ctx, "image/../../etc/passwd")
	assert.Error(t, err)
}

func TestBlobStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newStore(t)
	assert.ErrorIs(t, s.Put(ctx, "image/a.png", nil, ""), context.Canceled)
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"image/a.png", "image/a.png", false},
		{"/image//a.png", "image/a.png", false},
		{`image\a.png`, "image/a.png", false},
		{"..", "", true},
		{"a/../../b", "", true},
		{" ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := sanitizeKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
