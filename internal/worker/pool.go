package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"bulkgen/internal/infra"
	"bulkgen/internal/queue"
)

const receiveBackoff = 2 * time.Second

// Executor runs one prompt job to a terminal status.
type Executor interface {
	Execute(ctx context.Context, jobID int64)
}

// Pool pulls job ids from a consumer and executes up to Concurrency of them at
// once.
type Pool struct {
	consumer    queue.Consumer
	executor    Executor
	concurrency int
	logger      infra.Logger
	backoff     time.Duration
}

func NewPool(consumer queue.Consumer, executor Executor, concurrency int, logger infra.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	id := uuid.NewString()
	return &Pool{
		consumer:    consumer,
		executor:    executor,
		concurrency: concurrency,
		logger:      logger.With().Str("worker_id", id).Logger(),
		backoff:     receiveBackoff,
	}
}

// Run blocks until ctx is canceled or the queue closes. In-flight jobs are
// allowed to finish before it returns; they run detached from ctx so shutdown
// does not fail them half way.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info().Int("concurrency", p.concurrency).Msg("worker: started")
	slots := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		p.logger.Info().Msg("worker: stopped")
	}()

	for {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		jobID, err := p.consumer.Receive(ctx)
		if err != nil {
			<-slots
			switch {
			case errors.Is(err, queue.ErrEmpty):
				continue
			case errors.Is(err, queue.ErrClosed):
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			}
			p.logger.Error().Err(err).Msg("worker: receive failed")
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer func() { <-slots }()
			p.logger.Debug().Int64("job_id", id).Msg("worker: picked job")
			p.executor.Execute(context.WithoutCancel(ctx), id)
		}(jobID)
	}
}
