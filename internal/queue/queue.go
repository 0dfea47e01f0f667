package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bulkgen/internal/infra"
)

var (
	// ErrEmpty is returned by Receive when the poll window elapsed without a message.
	ErrEmpty = errors.New("queue: empty")
	// ErrClosed is returned by Receive once the queue has been closed.
	ErrClosed = errors.New("queue: closed")
)

// Dispatcher schedules a prompt job for asynchronous execution. Scheduling is
// fire-and-forget: the caller never waits for the job to run.
type Dispatcher interface {
	Schedule(ctx context.Context, jobID int64) error
}

// Consumer hands scheduled job ids to workers. Delivery is at-least-once.
type Consumer interface {
	Receive(ctx context.Context) (int64, error)
}

// Queue is a broker connection usable from both sides of the boundary.
type Queue interface {
	Dispatcher
	Consumer
	Close() error
}

// Open connects the backend selected by QUEUE_BACKEND.
func Open(cfg *infra.Config, logger infra.Logger) (Queue, error) {
	switch cfg.QueueBackend {
	case infra.QueueBackendRedis:
		return NewRedis(cfg.RedisURL, cfg.QueueName, logger)
	case infra.QueueBackendKafka:
		return NewKafka(KafkaOptions{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, logger)
	case infra.QueueBackendMemory:
		return NewLocal(0), nil
	default:
		return nil, fmt.Errorf("queue: unsupported backend %q", cfg.QueueBackend)
	}
}

func encodeJobID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decodeJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("queue: invalid job id %q", raw)
	}
	return id, nil
}
