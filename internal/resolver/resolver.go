// Package resolver implements the two-stage link resolution pipeline:
// an HTTP fetch of the tenant's upstream address API chained with a
// headless-browser navigation that executes client-side redirects, followed
// by randomization of the leftmost host label of the final address.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/bot"
	"github.com/botfleet/linkrelay/internal/cache"
	"github.com/botfleet/linkrelay/internal/metrics"
	"github.com/botfleet/linkrelay/internal/tenant"
)

// categoryDynamic keys dynamic-mode results in the cache.
const categoryDynamic = "dynamic"

// Upstream fetches the tenant's address API and returns the advertised
// intermediate address.
type Upstream interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Navigator performs a full browser navigation and returns the final
// address after any client-side redirects.
type Navigator interface {
	ResolveFinalURL(ctx context.Context, url string) (string, error)
}

// Resolver runs both resolution modes against a tenant's configuration.
type Resolver struct {
	cache        *cache.Store
	upstream     Upstream
	nav          Navigator
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// New constructs a Resolver.
func New(
	store *cache.Store,
	up Upstream,
	nav Navigator,
	ttl time.Duration,
	fetchTimeout time.Duration,
	logger *zap.Logger,
) *Resolver {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Resolver{
		cache:        store,
		upstream:     up,
		nav:          nav,
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// DynamicLink resolves the tenant's latest download address: cache check,
// upstream fetch, browser navigation, then host-label randomization. The
// mutated address is cached for the configured TTL. Failed resolutions
// never touch the cache.
func (r *Resolver) DynamicLink(ctx context.Context, t *tenant.Tenant) (string, error) {
	if t.APIURL == "" {
		return "", fmt.Errorf("tenant %s has no api url: %w", t.ID, bot.ErrNotConfigured)
	}

	if cached, ok := r.cache.Get(t.ID, categoryDynamic); ok {
		metrics.ObserveCacheLookup("hit")
		metrics.ObserveResolution(t.ID, "dynamic", "cached")
		return cached, nil
	}
	metrics.ObserveCacheLookup("miss")

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()
	intermediate, err := r.upstream.Fetch(fetchCtx, t.APIURL)
	if err != nil {
		metrics.ObserveResolution(t.ID, "dynamic", "upstream_error")
		return "", err
	}
	intermediate = NormalizeAddress(intermediate)

	final, err := r.nav.ResolveFinalURL(ctx, intermediate)
	if err != nil {
		metrics.ObserveResolution(t.ID, "dynamic", "navigation_error")
		return "", err
	}

	mutated, err := MutateHost(final, RandomLabel(dynamicLabelMin, dynamicLabelMax))
	if err != nil {
		metrics.ObserveResolution(t.ID, "dynamic", "mutation_error")
		return "", err
	}

	r.cache.Set(t.ID, categoryDynamic, mutated, r.ttl)
	metrics.ObserveResolution(t.ID, "dynamic", "resolved")
	r.logger.Info("dynamic link resolved",
		zap.String("tenant", t.ID),
		zap.String("final", mutated),
	)
	return mutated, nil
}

// TemplateLink fills the tenant's APK template with a fresh random label.
// The operation is stateless: no network call and no cache.
func (r *Resolver) TemplateLink(t *tenant.Tenant) (string, error) {
	if t.APKTemplate == "" {
		return "", fmt.Errorf("tenant %s has no apk template: %w", t.ID, bot.ErrNotConfigured)
	}
	if !strings.Contains(t.APKTemplate, templatePlaceholder) {
		return "", fmt.Errorf("tenant %s apk template has no placeholder: %w", t.ID, bot.ErrNotConfigured)
	}
	label := RandomLabel(templateLabelMin, templateLabelMax)
	metrics.ObserveResolution(t.ID, "template", "resolved")
	return strings.Replace(t.APKTemplate, templatePlaceholder, label, 1), nil
}
