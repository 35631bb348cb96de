package mediaprovider

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/outbound"
)

// pollRequestTimeout bounds a single status request.
const pollRequestTimeout = 30 * time.Second

type checkFunc func(ctx context.Context) (*model.RemoteStatus, error)

// poller waits for a remote job to settle.
type poller struct {
	interval time.Duration
	maxWait  time.Duration
	logger   *zap.Logger
}

// await checks immediately, then every interval, until the job completes or
// fails. A status error ends the wait.
func (p poller) await(ctx context.Context, handle string, check checkFunc) (*model.RemoteStatus, error) {
	timeout := time.NewTimer(p.maxWait)
	defer timeout.Stop()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		status, err := p.checkOnce(ctx, check)
		if err != nil {
			return nil, err
		}

		switch status.State {
		case model.RemoteStateCompleted:
			p.logger.Info("remote job completed",
				zap.String("handle", handle),
				zap.Int("attempts", attempt),
			)
			return status, nil
		case model.RemoteStateFailed:
			msg := status.Message
			if msg == "" {
				msg = "no reason given"
			}
			return status, fmt.Errorf("%w: %s", outbound.ErrRemoteFailed, msg)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			return nil, fmt.Errorf("%w after %s", outbound.ErrRemoteTimeout, p.maxWait)
		case <-ticker.C:
		}
	}
}

func (p poller) checkOnce(ctx context.Context, check checkFunc) (*model.RemoteStatus, error) {
	pollCtx, cancel := context.WithTimeout(ctx, pollRequestTimeout)
	defer cancel()
	return check(pollCtx)
}
