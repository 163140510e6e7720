package bot

import (
	"context"
	"time"
)

// Sender delivers outbound messages to the chat platform. Implementations
// are fire-and-forget from the core's perspective: callers log failures and
// never retry.
type Sender interface {
	SendMessage(ctx context.Context, token string, chatID int64, text string) error
	SendDocument(ctx context.Context, token string, chatID int64, fileURL, caption string) error
}

// Queue provides enqueue/dequeue semantics for inbound events.
type Queue interface {
	Enqueue(ctx context.Context, ev InboundEvent) error
	Dequeue(ctx context.Context) (InboundEvent, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
