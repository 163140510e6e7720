// Package worker consumes inbound events from the queue and runs the
// keyword router, decoupling webhook acknowledgment from handling.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/bot"
	"github.com/botfleet/linkrelay/internal/router"
)

// eventBudget bounds one message's handling end to end; it comfortably
// covers the fetch and navigation stage timeouts.
const eventBudget = 60 * time.Second

// Worker processes one event at a time off the shared queue.
type Worker struct {
	queue  bot.Queue
	router *router.Router
	logger *zap.Logger
}

// New constructs a Worker.
func New(queue bot.Queue, rtr *router.Router, logger *zap.Logger) *Worker {
	return &Worker{
		queue:  queue,
		router: rtr,
		logger: logger,
	}
}

// Run loops until the context ends. Handling errors never propagate; the
// router converts everything into replies or log entries.
func (w *Worker) Run(ctx context.Context) {
	for {
		ev, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("dequeue failed", zap.Error(err))
			return
		}
		evCtx, cancel := context.WithTimeout(ctx, eventBudget)
		w.router.Dispatch(evCtx, ev.TenantID, ev.Message)
		cancel()
	}
}

// Pool fans events out to a fixed number of workers.
type Pool struct {
	workers []*Worker
}

// NewPool builds size workers over the shared queue.
func NewPool(queue bot.Queue, rtr *router.Router, size int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{}
	for i := 0; i < size; i++ {
		p.workers = append(p.workers, New(queue, rtr, logger.Named("worker").With(zap.Int("index", i))))
	}
	return p
}

// Run starts all workers and blocks until the context finishes.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func(wk *Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	<-ctx.Done()
	wg.Wait()
}
