package bot

import "errors"

// Resolution and dispatch failures are classified with sentinel errors so
// handlers can pick the right user-facing reply with errors.Is. Every one of
// them is caught at the handler boundary; none reach the webhook
// acknowledgment.
var (
	// ErrNotConfigured marks a tenant missing the config a handler needs
	// (dynamic API URL or APK template).
	ErrNotConfigured = errors.New("tenant missing required configuration")

	// ErrUpstreamFetch covers network failure, non-2xx status, timeout, or
	// an unusable payload from the tenant's upstream address API.
	ErrUpstreamFetch = errors.New("upstream address fetch failed")

	// ErrNavigationTimeout means the browser stage exceeded its deadline.
	ErrNavigationTimeout = errors.New("browser navigation timed out")

	// ErrBrowserUnavailable means the shared browser engine is disconnected.
	ErrBrowserUnavailable = errors.New("browser engine unavailable")
)
