package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/relai/server/internal/adapter/outbound/aiprovider"
	"github.com/relai/server/internal/adapter/outbound/filesystem"
	"github.com/relai/server/internal/adapter/outbound/mediaprovider"
	"github.com/relai/server/internal/adapter/outbound/memory"
	redisadapter "github.com/relai/server/internal/adapter/outbound/redis"
	s3adapter "github.com/relai/server/internal/adapter/outbound/s3"
	"github.com/relai/server/internal/infra/config"
	"github.com/relai/server/internal/infra/httpclient"
	"github.com/relai/server/internal/port/outbound"
	"github.com/relai/server/internal/utils/metrics"
)

// adapters holds the outbound side of the application.
type adapters struct {
	blobs outbound.BlobStorePort
	jobs  *memory.JobStore

	video outbound.VideoProviderPort
	voice outbound.VoiceProviderPort
	music outbound.MusicProviderPort
	text  outbound.TextGenerationPort

	// suggestionCache is nil without Redis.
	suggestionCache outbound.SuggestionCachePort
	rateLimiter     outbound.RateLimiterPort
	idempotency     outbound.IdempotencyStorePort
}

// newAdapters builds every outbound adapter. rdb may be nil, in which case
// the request guards fall back to process-local stores.
func newAdapters(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient, m *metrics.Metrics, logger *zap.Logger) (*adapters, error) {
	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &adapters{
		blobs: blobs,
		jobs:  memory.NewJobStore(),
	}

	if rdb != nil {
		a.suggestionCache = redisadapter.NewSuggestionCache(rdb)
		a.rateLimiter = redisadapter.NewRateLimiter(rdb)
		a.idempotency = redisadapter.NewIdempotencyStore(rdb)
	} else {
		a.rateLimiter = memory.NewRateLimiter()
		a.idempotency = memory.NewIdempotencyStore()
	}

	client := httpclient.New(cfg.HTTPClient, httpclient.NewTransport(cfg.HTTPClient))
	breaker := cfg.Providers.Breaker

	a.video = mediaprovider.NewVideoClient(
		cfg.Providers.Video,
		httpclient.NewCaller("video", client, breaker, m, logger),
		logger,
	)
	a.voice = mediaprovider.NewVoiceClient(
		cfg.Providers.Voice,
		httpclient.NewCaller("voice", client, breaker, m, logger),
		logger,
	)
	a.music = mediaprovider.NewMusicClient(
		cfg.Providers.Music,
		httpclient.NewCaller("music", client, breaker, m, logger),
		logger,
	)

	a.text, err = aiprovider.New(ctx, cfg.Providers.Text, breaker, client, m, logger)
	if err != nil {
		return nil, fmt.Errorf("init text provider: %w", err)
	}

	return a, nil
}

// newBlobStore opens the media store selected by cfg.Driver.
func newBlobStore(ctx context.Context, cfg config.StorageConfig) (outbound.BlobStorePort, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		client, err := s3adapter.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init s3 client: %w", err)
		}
		return s3adapter.NewBlobStore(client, cfg.Bucket, cfg.Prefix), nil
	case config.StorageDriverLocal:
		store, err := filesystem.NewBlobStore(cfg.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
