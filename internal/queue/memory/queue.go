// Package memory provides the bounded in-memory queue that decouples
// webhook acknowledgment from message handling.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/botfleet/linkrelay/internal/bot"
)

// Queue is a bounded in-memory queue with context-aware operations.
type Queue struct {
	ch      chan bot.InboundEvent
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan bot.InboundEvent, capacity),
	}
}

// Enqueue pushes an event into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, ev bot.InboundEvent) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- ev:
		return nil
	}
}

// Dequeue pops the next event, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (bot.InboundEvent, error) {
	select {
	case <-ctx.Done():
		return bot.InboundEvent{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case ev, ok := <-q.ch:
		if !ok {
			return bot.InboundEvent{}, errors.New("queue closed")
		}
		return ev, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
