package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bulkgen/internal/infra"
)

const defaultPollTimeout = 5 * time.Second

// Redis is a list-backed queue: producers LPUSH, workers BRPOP.
type Redis struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
	logger      infra.Logger
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL, key string, logger infra.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	opts.DialTimeout = 10 * time.Second
	// Reads must outlive the BRPOP poll window.
	opts.ReadTimeout = defaultPollTimeout + 5*time.Second
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("queue: redis ping: %w", err)
	}
	return NewRedisWithClient(client, key, logger), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, key string, logger infra.Logger) *Redis {
	return &Redis{client: client, key: key, pollTimeout: defaultPollTimeout, logger: logger}
}

func (r *Redis) Schedule(ctx context.Context, jobID int64) error {
	if err := r.client.LPush(ctx, r.key, encodeJobID(jobID)).Err(); err != nil {
		return fmt.Errorf("queue: lpush: %w", err)
	}
	r.logger.Debug().Int64("job_id", jobID).Str("queue", r.key).Msg("queue: scheduled")
	return nil
}

func (r *Redis) Receive(ctx context.Context) (int64, error) {
	result, err := r.client.BRPop(ctx, r.pollTimeout, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrEmpty
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		if errors.Is(err, redis.ErrClosed) {
			return 0, ErrClosed
		}
		return 0, fmt.Errorf("queue: brpop: %w", err)
	}
	// BRPOP replies with [key, value].
	if len(result) != 2 {
		return 0, fmt.Errorf("queue: unexpected brpop reply %v", result)
	}
	return decodeJobID(result[1])
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Queue = (*Redis)(nil)
