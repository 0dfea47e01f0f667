package worker

import (
	"context"
	"time"

	"bulkgen/internal/bulk"
	"bulkgen/internal/infra"
)

// Recoverer resets stuck jobs.
type Recoverer interface {
	RecoverStuck(ctx context.Context, opts bulk.RecoverOptions) (bulk.RecoverResult, error)
}

// pendingFactor stretches the stuck threshold for pending jobs. A pending job
// is usually just waiting its turn in the queue, so it is only pushed again
// once it has waited far longer than a processing job may run.
const pendingFactor = 6

// Sweeper runs a global stuck-job recovery on a fixed interval. Pending jobs
// are included so a job whose dispatch failed is eventually scheduled.
type Sweeper struct {
	recoverer Recoverer
	interval  time.Duration
	olderThan time.Duration
	logger    infra.Logger
}

func NewSweeper(recoverer Recoverer, interval, olderThan time.Duration, logger infra.Logger) *Sweeper {
	return &Sweeper{recoverer: recoverer, interval: interval, olderThan: olderThan, logger: logger}
}

// Run blocks until ctx is canceled. A non-positive interval disables sweeping.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info().Msg("sweeper: disabled")
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	res, err := s.recoverer.RecoverStuck(ctx, bulk.RecoverOptions{
		OlderThan:        s.olderThan,
		IncludePending:   true,
		PendingOlderThan: s.olderThan * pendingFactor,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("sweeper: recovery failed")
		return
	}
	if res.Reset > 0 {
		s.logger.Warn().Int("reset", res.Reset).Int("dispatched", res.Dispatched).Msg("sweeper: recovered stuck jobs")
	}
}
