// Package bot holds the core domain types shared across the service:
// inbound messages, the event queue contract, outbound send capabilities,
// and the error taxonomy for link resolution.
package bot

import "time"

// Message is one normalized inbound chat message.
type Message struct {
	ChatID   int64
	SenderID int64
	Text     string
}

// InboundEvent wraps a message together with the tenant it was delivered to.
// The webhook layer produces these; the worker pool consumes them.
type InboundEvent struct {
	TenantID   string
	Message    Message
	ReceivedAt time.Time
}
