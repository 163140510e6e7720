// Package upstream fetches a tenant's address API over plain HTTP and
// extracts the advertised intermediate address.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/botfleet/linkrelay/internal/bot"
)

// Config controls collector behavior.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher performs single GETs using a Colly collector.
type Fetcher struct {
	cfg  Config
	base *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	return &Fetcher{cfg: cfg, base: c}
}

// Fetch executes one HTTP GET against the upstream API and returns the
// address it advertises. Any transport failure, non-2xx status, timeout, or
// unusable payload maps to bot.ErrUpstreamFetch.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}

	timeout := f.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return "", fmt.Errorf("fetch %s: %w", rawURL, bot.ErrUpstreamFetch)
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		fetchErr = err
	})

	if err := collector.Visit(rawURL); err != nil {
		return "", fmt.Errorf("fetch %s: %v: %w", rawURL, err, bot.ErrUpstreamFetch)
	}
	if fetchErr != nil {
		return "", fmt.Errorf("fetch %s: %v: %w", rawURL, fetchErr, bot.ErrUpstreamFetch)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("fetch %s: status %d: %w", rawURL, status, bot.ErrUpstreamFetch)
	}
	return ParseAddress(body)
}

// apiPayload covers the structured response shapes seen from upstream
// address APIs; whichever field is populated wins.
type apiPayload struct {
	Data        string `json:"data"`
	URL         string `json:"url"`
	RedirectURL string `json:"redirect_url"`
}

// ParseAddress accepts either a bare text address or a JSON object carrying
// one. Detection is automatic; anything else is an upstream-fetch error.
func ParseAddress(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", fmt.Errorf("empty upstream body: %w", bot.ErrUpstreamFetch)
	}
	if strings.HasPrefix(text, "{") {
		var payload apiPayload
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			return "", fmt.Errorf("decode upstream payload: %v: %w", err, bot.ErrUpstreamFetch)
		}
		for _, candidate := range []string{payload.Data, payload.URL, payload.RedirectURL} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("upstream payload carries no address: %w", bot.ErrUpstreamFetch)
	}
	if strings.ContainsAny(text, " \t\n") {
		return "", fmt.Errorf("upstream body is not an address: %w", bot.ErrUpstreamFetch)
	}
	return text, nil
}
