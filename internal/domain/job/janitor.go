package job

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// janitor evicts terminal jobs past retention until Stop.
func (o *Orchestrator) janitor() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.evict(context.Background())
		}
	}
}

// evict removes terminal jobs last updated before now minus retention.
func (o *Orchestrator) evict(ctx context.Context) int {
	cutoff := o.now().Add(-o.config.Retention)
	n, err := o.jobs.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		o.logger.Error("failed to evict jobs", zap.Error(err))
		return 0
	}
	if n > 0 {
		o.logger.Info("evicted finished jobs",
			zap.Int("count", n),
			zap.Time("cutoff", cutoff))
	}
	return n
}
