package job

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relai/server/internal/adapter/outbound/memory"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
	"github.com/relai/server/internal/utils/metrics"
)

// --- Mocks ---

type MockVideoProvider struct {
	mock.Mock
}

func (m *MockVideoProvider) Submit(ctx context.Context, sub *model.VideoSubmission) (string, error) {
	args := m.Called(ctx, sub)
	return args.String(0), args.Error(1)
}

func (m *MockVideoProvider) Retrieve(ctx context.Context, handle string) (*model.RemoteStatus, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RemoteStatus), args.Error(1)
}

func (m *MockVideoProvider) AwaitCompletion(ctx context.Context, handle string) (*model.RemoteStatus, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RemoteStatus), args.Error(1)
}

func (m *MockVideoProvider) Download(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockMusicProvider struct {
	mock.Mock
}

func (m *MockMusicProvider) Submit(ctx context.Context, sub *model.MusicSubmission) (string, error) {
	args := m.Called(ctx, sub)
	return args.String(0), args.Error(1)
}

func (m *MockMusicProvider) AwaitCompletion(ctx context.Context, id string) (*model.RemoteStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RemoteStatus), args.Error(1)
}

func (m *MockMusicProvider) Download(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockVoiceProvider struct {
	mock.Mock
}

func (m *MockVoiceProvider) Synthesize(ctx context.Context, req *model.VoiceSynthesis) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockVoiceProvider) CloneVoice(ctx context.Context, name string, sample []byte, filename string) (string, error) {
	args := m.Called(ctx, name, sample, filename)
	return args.String(0), args.Error(1)
}

func (m *MockVoiceProvider) ListVoices(ctx context.Context) ([]*model.Voice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Voice), args.Error(1)
}

// --- Fakes ---

// fakeMedia is an in-memory media domain.
type fakeMedia struct {
	mu        sync.Mutex
	artifacts map[string]*model.Artifact
	data      map[string][]byte
	saveErr   map[model.MediaCategory]error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		artifacts: make(map[string]*model.Artifact),
		data:      make(map[string][]byte),
		saveErr:   make(map[model.MediaCategory]error),
	}
}

func (f *fakeMedia) Save(_ context.Context, in *inbound.SaveMediaInput) (*model.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveErr[in.Category]; err != nil {
		return nil, err
	}
	a := &model.Artifact{
		ID:          uuid.New().String(),
		Category:    in.Category,
		Extension:   "bin",
		ContentType: in.ContentType,
		Size:        int64(len(in.Data)),
		CreatedAt:   time.Now(),
	}
	a.Key = string(a.Category) + "/" + a.Filename()
	f.artifacts[a.ID] = a
	f.data[a.ID] = append([]byte(nil), in.Data...)
	return a, nil
}

func (f *fakeMedia) Resolve(_ context.Context, id string, category model.MediaCategory) (*model.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.artifacts[id]
	if !ok || a.Category != category {
		return nil, inbound.ErrArtifactNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeMedia) Open(ctx context.Context, a *model.Artifact) (io.ReadCloser, error) {
	data, err := f.ReadAll(ctx, a)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeMedia) ReadAll(_ context.Context, a *model.Artifact) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.data[a.ID]
	if !ok {
		return nil, inbound.ErrArtifactNotFound
	}
	return append([]byte(nil), data...), nil
}

func (f *fakeMedia) count(category model.MediaCategory) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.artifacts {
		if a.Category == category {
			n++
		}
	}
	return n
}

// recordingStore remembers every state each job was stored in.
type recordingStore struct {
	*memory.JobStore

	mu     sync.Mutex
	states map[string][]model.JobState
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		JobStore: memory.NewJobStore(),
		states:   make(map[string][]model.JobState),
	}
}

func (s *recordingStore) Create(ctx context.Context, job *model.Job) error {
	if err := s.JobStore.Create(ctx, job); err != nil {
		return err
	}
	s.record(job.ID, job.State)
	return nil
}

func (s *recordingStore) Update(ctx context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	job, err := s.JobStore.Update(ctx, id, fn)
	if err == nil {
		s.record(id, job.State)
	}
	return job, err
}

func (s *recordingStore) record(id string, state model.JobState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = append(s.states[id], state)
}

func (s *recordingStore) history(id string) []model.JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.JobState(nil), s.states[id]...)
}

// --- Fixture ---

var (
	imageBytes = []byte("\x89PNG\r\n\x1a\nimage")
	voiceBytes = []byte("ID3narration")
	musicBytes = []byte("ID3music")
	videoBytes = []byte("\x00\x00\x00\x18ftypmp42video")
	sampleData = []byte("ID3sample")
)

type fixture struct {
	orch    *Orchestrator
	store   *recordingStore
	media   *fakeMedia
	video   *MockVideoProvider
	voice   *MockVoiceProvider
	music   *MockMusicProvider
	metrics *metrics.Metrics
	image   *model.Artifact
	sample  *model.Artifact
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()

	cfg := DefaultConfig()
	cfg.CleanupInterval = 0
	for _, fn := range mutate {
		fn(cfg)
	}

	f := &fixture{
		store:   newRecordingStore(),
		media:   newFakeMedia(),
		video:   new(MockVideoProvider),
		voice:   new(MockVoiceProvider),
		music:   new(MockMusicProvider),
		metrics: metrics.New("test", prometheus.NewRegistry()),
	}

	var err error
	f.image, err = f.media.Save(context.Background(), &inbound.SaveMediaInput{
		Data: imageBytes, ContentType: "image/png", Category: model.MediaCategoryImage,
	})
	require.NoError(t, err)
	f.sample, err = f.media.Save(context.Background(), &inbound.SaveMediaInput{
		Data: sampleData, ContentType: "audio/mpeg", Category: model.MediaCategoryVoice,
	})
	require.NoError(t, err)

	f.orch = NewOrchestrator(f.store, f.media, f.video, f.voice, f.music, cfg, f.metrics, zap.NewNop())
	f.orch.Start()
	t.Cleanup(f.orch.Stop)
	return f
}

func (f *fixture) request(mode model.VoiceMode) *model.GenerationRequest {
	req := &model.GenerationRequest{
		ImageID:   f.image.ID,
		Prompt:    "a barista pouring latte art at sunrise",
		VoiceMode: mode,
		Duration:  20,
	}
	if mode.NeedsReference() {
		req.VoiceID = f.sample.ID
	}
	return req
}

func (f *fixture) expectVoice() {
	f.voice.On("Synthesize", mock.Anything, mock.Anything).Return(voiceBytes, nil)
}

func (f *fixture) expectMusic() {
	f.music.On("Submit", mock.Anything, mock.Anything).Return("music-1", nil)
	f.music.On("AwaitCompletion", mock.Anything, "music-1").
		Return(&model.RemoteStatus{Handle: "music-1", State: model.RemoteStateCompleted, OutputURL: "https://cdn/music.mp3"}, nil)
	f.music.On("Download", mock.Anything, "https://cdn/music.mp3").Return(musicBytes, nil)
}

func (f *fixture) expectVideo() {
	f.video.On("Submit", mock.Anything, mock.Anything).Return("video-1", nil)
	f.video.On("AwaitCompletion", mock.Anything, "video-1").
		Return(&model.RemoteStatus{Handle: "video-1", State: model.RemoteStateCompleted, OutputURL: "https://cdn/video.mp4"}, nil)
	f.video.On("Download", mock.Anything, "https://cdn/video.mp4").Return(videoBytes, nil)
}

// videoSubmission returns the submission passed to the video provider.
func (f *fixture) videoSubmission(t *testing.T) *model.VideoSubmission {
	t.Helper()
	for _, call := range f.video.Calls {
		if call.Method == "Submit" {
			return call.Arguments.Get(1).(*model.VideoSubmission)
		}
	}
	t.Fatal("video Submit was not called")
	return nil
}

func waitTerminal(t *testing.T, o *Orchestrator, id string) *model.Job {
	t.Helper()
	var job *model.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = o.GetStatus(context.Background(), id)
		return err == nil && job.State.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func waitState(t *testing.T, o *Orchestrator, id string, state model.JobState) {
	t.Helper()
	require.Eventually(t, func() bool {
		job, err := o.GetStatus(context.Background(), id)
		return err == nil && job.State == state
	}, 2*time.Second, 5*time.Millisecond)
}
