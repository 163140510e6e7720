// Package scheduler broadcasts configured messages to per-tenant recipient
// lists on a fixed poll loop.
package scheduler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/bot"
	"github.com/botfleet/linkrelay/internal/metrics"
	"github.com/botfleet/linkrelay/internal/tenant"
)

// lineBreakMarker in a broadcast template becomes a literal newline.
const lineBreakMarker = `\n`

// resendGuard suppresses duplicate sends of the same trigger across
// adjacent poll ticks. 59 minutes rather than exact-minute matching
// tolerates poll-tick jitter while keeping at most one send per trigger
// per window. The guard is keyed per (tenant, trigger time), so triggers
// configured less than an hour apart fire independently.
const resendGuard = 59 * time.Minute

// Scheduler runs the broadcast poll loop. lastSent is keyed by tenant id
// and trigger time and touched only by the scheduler's own goroutine, so
// no locking is needed.
type Scheduler struct {
	registry *tenant.Registry
	sender   bot.Sender
	clock    bot.Clock
	interval time.Duration
	logger   *zap.Logger
	lastSent map[string]time.Time
}

// New constructs a Scheduler.
func New(
	registry *tenant.Registry,
	sender bot.Sender,
	clock bot.Clock,
	interval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		registry: registry,
		sender:   sender,
		clock:    clock,
		interval: interval,
		logger:   logger,
		lastSent: make(map[string]time.Time),
	}
}

// Run ticks until the context ends. Started once at process startup.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates every tenant schedule against the current UTC minute.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now().UTC()
	minute := now.Format("15:04")
	for _, t := range s.registry.All() {
		if t.Schedule == nil {
			continue
		}
		if !containsTime(t.Schedule.Times, minute) {
			continue
		}
		key := t.ID + "|" + minute
		if last, ok := s.lastSent[key]; ok && now.Sub(last) <= resendGuard {
			continue
		}
		s.broadcast(ctx, t)
		s.lastSent[key] = now
	}
}

// broadcast sends the tenant's message to every recipient independently; a
// failure for one recipient does not stop the others.
func (s *Scheduler) broadcast(ctx context.Context, t *tenant.Tenant) {
	text := strings.ReplaceAll(t.Schedule.Message, lineBreakMarker, "\n")
	for _, chatID := range t.Schedule.Recipients {
		if err := s.sender.SendMessage(ctx, t.Token, chatID, text); err != nil {
			s.logger.Warn("broadcast send failed",
				zap.String("tenant", t.ID),
				zap.Int64("chat", chatID),
				zap.Error(err),
			)
			metrics.ObserveBroadcast(t.ID, "error")
			continue
		}
		metrics.ObserveBroadcast(t.ID, "sent")
	}
	s.logger.Info("broadcast completed",
		zap.String("tenant", t.ID),
		zap.Int("recipients", len(t.Schedule.Recipients)),
	)
}

func containsTime(times []string, minute string) bool {
	for _, tm := range times {
		if tm == minute {
			return true
		}
	}
	return false
}
