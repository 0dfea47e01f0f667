package queue

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultLocalBuffer = 1024

// Local is an in-process channel queue for single-binary deployments and tests.
type Local struct {
	ch        chan int64
	done      chan struct{}
	closeOnce sync.Once
	overflow  atomic.Int64
}

func NewLocal(buffer int) *Local {
	if buffer <= 0 {
		buffer = defaultLocalBuffer
	}
	return &Local{ch: make(chan int64, buffer), done: make(chan struct{})}
}

// Schedule never blocks the caller. When the buffer is full the id is handed
// to a goroutine that delivers it once a consumer frees a slot, or drops it
// when the queue closes.
func (l *Local) Schedule(ctx context.Context, jobID int64) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.ch <- jobID:
		return nil
	default:
	}
	l.overflow.Add(1)
	go func() {
		defer l.overflow.Add(-1)
		select {
		case l.ch <- jobID:
		case <-l.done:
		}
	}()
	return nil
}

func (l *Local) Receive(ctx context.Context) (int64, error) {
	select {
	case id := <-l.ch:
		return id, nil
	case <-l.done:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Len reports how many ids are waiting, including those parked behind a
// full buffer.
func (l *Local) Len() int {
	return len(l.ch) + int(l.overflow.Load())
}

func (l *Local) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return nil
}

var _ Queue = (*Local)(nil)
