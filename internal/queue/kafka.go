package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"bulkgen/internal/infra"
)

// KafkaOptions configures the topic-backed queue.
type KafkaOptions struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Kafka publishes one message per scheduled job and consumes them through a
// consumer group. The reader is created on first Receive so producers never
// join the group.
type Kafka struct {
	opts   KafkaOptions
	writer *kafka.Writer
	logger infra.Logger

	mu     sync.Mutex
	reader *kafka.Reader
}

func NewKafka(opts KafkaOptions, logger infra.Logger) (*Kafka, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("queue: kafka brokers are required")
	}
	if opts.Topic == "" {
		return nil, errors.New("queue: kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(opts.Brokers...),
		Topic:                  opts.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Kafka{opts: opts, writer: writer, logger: logger}, nil
}

func (k *Kafka) Schedule(ctx context.Context, jobID int64) error {
	id := encodeJobID(jobID)
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(id), Value: []byte(id)}); err != nil {
		return fmt.Errorf("queue: kafka write: %w", err)
	}
	k.logger.Debug().Int64("job_id", jobID).Str("topic", k.opts.Topic).Msg("queue: scheduled")
	return nil
}

func (k *Kafka) Receive(ctx context.Context) (int64, error) {
	msg, err := k.readerFor().ReadMessage(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		if errors.Is(err, io.EOF) {
			return 0, ErrClosed
		}
		return 0, fmt.Errorf("queue: kafka read: %w", err)
	}
	return decodeJobID(string(msg.Value))
}

func (k *Kafka) readerFor() *kafka.Reader {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.reader == nil {
		k.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  k.opts.Brokers,
			Topic:    k.opts.Topic,
			GroupID:  k.opts.GroupID,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		})
	}
	return k.reader
}

func (k *Kafka) Close() error {
	err := k.writer.Close()
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.reader != nil {
		if rerr := k.reader.Close(); err == nil {
			err = rerr
		}
	}
	return err
}

var _ Queue = (*Kafka)(nil)
