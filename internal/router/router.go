// Package router matches inbound messages against per-priority keyword
// tables and runs the winning handler. At most one handler fires per
// message; unmatched messages are dropped silently. Every handler error is
// converted into a user-facing reply here and never escapes to the
// transport layer.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/access"
	"github.com/botfleet/linkrelay/internal/bot"
	"github.com/botfleet/linkrelay/internal/metrics"
	"github.com/botfleet/linkrelay/internal/resolver"
	"github.com/botfleet/linkrelay/internal/tenant"
)

// User-facing failure replies, one per taxonomy entry.
const (
	msgNotConfigured      = "This bot is not fully configured yet. Please contact the administrator."
	msgUpstreamFetch      = "Could not reach the address service. Please try again later."
	msgNavigationTimeout  = "The address lookup timed out. Please send the keyword again in a moment."
	msgBrowserUnavailable = "The address service is temporarily unavailable. Please try again later."
	msgGenericFailure     = "Something went wrong while fetching the latest address."
)

type handlerFunc func(ctx context.Context, t *tenant.Tenant, msg bot.Message)

type route struct {
	name     string
	patterns map[string]struct{}
	handle   handlerFunc
}

// Router dispatches messages for every tenant against one immutable route
// table compiled at construction.
type Router struct {
	registry *tenant.Registry
	access   *access.Controller
	resolver *resolver.Resolver
	sender   bot.Sender
	logger   *zap.Logger
	routes   []route
}

// New compiles the route table in priority order.
func New(
	registry *tenant.Registry,
	ctrl *access.Controller,
	res *resolver.Resolver,
	sender bot.Sender,
	logger *zap.Logger,
) *Router {
	r := &Router{
		registry: registry,
		access:   ctrl,
		resolver: res,
		sender:   sender,
		logger:   logger,
	}
	r.routes = []route{
		{name: "dynamic_link", patterns: toSet(dynamicKeywords), handle: r.handleDynamicLink},
		{name: "apk_template", patterns: toSet(apkKeywords), handle: r.handleTemplateLink},
		{name: "guide_android", patterns: toSet(androidGuideKeywords), handle: r.handleAndroidGuide},
		{name: "guide_ios", patterns: toSet(iosGuideKeywords), handle: r.handleIOSGuide},
		{name: "media", patterns: toSet(mediaKeywords), handle: r.handleMedia},
		{name: "start", patterns: toSet(startKeywords), handle: r.handleStart},
	}
	return r
}

// Dispatch routes one message for the given tenant. Matching happens on the
// trimmed text; the access check runs before the winning handler and a
// denial drops the message with only a log entry.
func (r *Router) Dispatch(ctx context.Context, tenantID string, msg bot.Message) {
	t, ok := r.registry.ByID(tenantID)
	if !ok {
		r.logger.Warn("dispatch for unmounted tenant", zap.String("tenant", tenantID))
		return
	}
	text := strings.TrimSpace(msg.Text)
	for _, rt := range r.routes {
		if _, hit := rt.patterns[text]; !hit {
			continue
		}
		if !r.access.IsAllowed(tenantID, msg.ChatID) {
			r.logger.Info("chat not on allow-list, dropping",
				zap.String("tenant", tenantID),
				zap.Int64("chat", msg.ChatID),
				zap.String("route", rt.name),
			)
			metrics.ObserveUpdate(tenantID, "denied")
			return
		}
		metrics.ObserveUpdate(tenantID, "handled")
		rt.handle(ctx, t, msg)
		return
	}
	metrics.ObserveUpdate(tenantID, "no_match")
}

func (r *Router) handleDynamicLink(ctx context.Context, t *tenant.Tenant, msg bot.Message) {
	link, err := r.resolver.DynamicLink(ctx, t)
	if err != nil {
		r.replyError(ctx, t, msg.ChatID, err)
		return
	}
	r.reply(ctx, t, msg.ChatID, fmt.Sprintf("Latest address:\n%s", link))
}

func (r *Router) handleTemplateLink(ctx context.Context, t *tenant.Tenant, msg bot.Message) {
	link, err := r.resolver.TemplateLink(t)
	if err != nil {
		r.replyError(ctx, t, msg.ChatID, err)
		return
	}
	r.reply(ctx, t, msg.ChatID, fmt.Sprintf("Latest Android download:\n%s", link))
}

func (r *Router) handleAndroidGuide(ctx context.Context, t *tenant.Tenant, msg bot.Message) {
	r.reply(ctx, t, msg.ChatID, androidGuideText)
}

func (r *Router) handleIOSGuide(ctx context.Context, t *tenant.Tenant, msg bot.Message) {
	r.reply(ctx, t, msg.ChatID, iosGuideText)
}

// handleMedia sends the current APK as a document rather than a bare link.
func (r *Router) handleMedia(ctx context.Context, t *tenant.Tenant, msg bot.Message) {
	link, err := r.resolver.TemplateLink(t)
	if err != nil {
		r.replyError(ctx, t, msg.ChatID, err)
		return
	}
	if err := r.sender.SendDocument(ctx, t.Token, msg.ChatID, link, "Latest Android package"); err != nil {
		r.logger.Warn("send document failed",
			zap.String("tenant", t.ID),
			zap.Int64("chat", msg.ChatID),
			zap.Error(err),
		)
	}
}

func (r *Router) handleStart(ctx context.Context, t *tenant.Tenant, msg bot.Message) {
	r.reply(ctx, t, msg.ChatID, startText)
}

func (r *Router) reply(ctx context.Context, t *tenant.Tenant, chatID int64, text string) {
	if err := r.sender.SendMessage(ctx, t.Token, chatID, text); err != nil {
		r.logger.Warn("send message failed",
			zap.String("tenant", t.ID),
			zap.Int64("chat", chatID),
			zap.Error(err),
		)
	}
}

func (r *Router) replyError(ctx context.Context, t *tenant.Tenant, chatID int64, err error) {
	r.logger.Warn("resolution failed",
		zap.String("tenant", t.ID),
		zap.Int64("chat", chatID),
		zap.Error(err),
	)
	r.reply(ctx, t, chatID, userMessage(err))
}

// userMessage maps a resolution error onto its fixed user-facing reply.
func userMessage(err error) string {
	switch {
	case errors.Is(err, bot.ErrNotConfigured):
		return msgNotConfigured
	case errors.Is(err, bot.ErrNavigationTimeout):
		return msgNavigationTimeout
	case errors.Is(err, bot.ErrBrowserUnavailable):
		return msgBrowserUnavailable
	case errors.Is(err, bot.ErrUpstreamFetch):
		return msgUpstreamFetch
	default:
		return msgGenericFailure
	}
}

func toSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[k] = struct{}{}
	}
	return set
}
