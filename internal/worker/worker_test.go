package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/access"
	"github.com/botfleet/linkrelay/internal/bot"
	"github.com/botfleet/linkrelay/internal/cache"
	"github.com/botfleet/linkrelay/internal/config"
	"github.com/botfleet/linkrelay/internal/queue/memory"
	"github.com/botfleet/linkrelay/internal/resolver"
	"github.com/botfleet/linkrelay/internal/router"
	"github.com/botfleet/linkrelay/internal/tenant"
)

type countingSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *countingSender) SendMessage(_ context.Context, _ string, _ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *countingSender) SendDocument(context.Context, string, int64, string, string) error {
	return nil
}

func (s *countingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texts)
}

type staticUpstream struct{}

func (staticUpstream) Fetch(context.Context, string) (string, error) {
	return "https://a.example.com", nil
}

type staticNavigator struct{}

func (staticNavigator) ResolveFinalURL(context.Context, string) (string, error) {
	return "https://a.example.com", nil
}

func newTestRouter(t *testing.T, sender bot.Sender) *router.Router {
	t.Helper()
	logger := zap.NewNop()
	registry := tenant.NewRegistry([]config.TenantConfig{
		{
			ID:           "acme",
			Token:        "tok-acme",
			APIURL:       "https://addr.example.com",
			APKTemplate:  "https://dl-*.example.com/app.apk",
			AllowedChats: "-1001",
		},
	}, logger)
	ctrl := access.New(registry, logger)
	res := resolver.New(cache.New(), staticUpstream{}, staticNavigator{}, time.Minute, time.Second, logger)
	return router.New(registry, ctrl, res, sender, logger)
}

func TestWorkerProcessesEvents(t *testing.T) {
	t.Parallel()

	sender := &countingSender{}
	q := memory.NewQueue(4)
	w := New(q, newTestRouter(t, sender), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	ev := bot.InboundEvent{
		TenantID: "acme",
		Message:  bot.Message{ChatID: -1001, Text: "/start"},
	}
	require.NoError(t, q.Enqueue(ctx, ev))

	require.Eventually(t, func() bool { return sender.count() == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestPoolDrainsQueueConcurrently(t *testing.T) {
	t.Parallel()

	sender := &countingSender{}
	q := memory.NewQueue(16)
	p := NewPool(q, newTestRouter(t, sender), 3, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(ctx, bot.InboundEvent{
			TenantID: "acme",
			Message:  bot.Message{ChatID: -1001, Text: "/start"},
		}))
	}

	require.Eventually(t, func() bool { return sender.count() == 10 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancellation")
	}
}

func TestPoolSizeFloor(t *testing.T) {
	t.Parallel()

	p := NewPool(memory.NewQueue(1), newTestRouter(t, &countingSender{}), 0, zap.NewNop())
	require.Len(t, p.workers, 1)
}
