// Package queue provides the bounded, blocking hand-off used between pipeline
// stages. A full queue blocks its producer and an empty queue blocks its
// consumer; nothing is ever dropped. Closing is the producer's end-of-stream
// signal and items pushed before Close are still delivered.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Push after Close, and by Pop once the queue is
// closed and drained.
var ErrClosed = errors.New("queue: closed")

// Queue is a fixed-capacity FIFO safe for one producer and one consumer.
type Queue[T any] struct {
	items     chan T
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a queue holding at most capacity items. Capacity never changes
// afterwards.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		panic("queue: capacity must be at least 1")
	}
	return &Queue[T]{
		items: make(chan T, capacity),
		done:  make(chan struct{}),
	}
}

// Push appends v, blocking while the queue is full.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.items <- v:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop removes the oldest item, blocking while the queue is empty.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-q.items:
		return v, nil
	case <-q.done:
		// Items pushed before Close win over the close signal.
		select {
		case v := <-q.items:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryPop removes the oldest item without blocking. It reports false when the
// queue is empty, whether or not it has been closed.
func (q *Queue[T]) TryPop() (T, bool) {
	select {
	case v := <-q.items:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Close marks the end of the stream. It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Drained reports whether the queue is closed and holds no more items.
func (q *Queue[T]) Drained() bool {
	return q.Closed() && len(q.items) == 0
}

// Done returns a channel closed by Close.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.items)
}
