package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/botfleet/linkrelay/internal/bot"
)

func TestEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	ev := bot.InboundEvent{
		TenantID:   "acme",
		Message:    bot.Message{ChatID: -1001, Text: "link"},
		ReceivedAt: time.Now(),
	}
	require.NoError(t, q.Enqueue(context.Background(), ev))

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, ev, got)
}

func TestEnqueueBlocksOnFullQueue(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), bot.InboundEvent{TenantID: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, bot.InboundEvent{TenantID: "b"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDequeueRespectsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDequeueAfterClose(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	require.NoError(t, q.Enqueue(context.Background(), bot.InboundEvent{TenantID: "a"}))
	q.Close()

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", got.TenantID)

	_, err = q.Dequeue(context.Background())
	require.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	q.Close()
	q.Close()
}

func TestOrderingIsFIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue(8)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(context.Background(), bot.InboundEvent{TenantID: id}))
	}
	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Dequeue(context.Background())
		require.NoError(t, err)
		require.Equal(t, want, got.TenantID)
	}
}
