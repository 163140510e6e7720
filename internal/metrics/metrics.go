// Package metrics exposes Prometheus collectors for the bot service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	updatesTotal     *prometheus.CounterVec
	resolutionsTotal *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	broadcastsTotal  *prometheus.CounterVec
	browserPages     prometheus.Gauge

	once sync.Once
)

func init() {
	Init()
}

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		updatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkrelay_updates_total",
				Help: "Inbound webhook updates, labeled by tenant and outcome.",
			},
			[]string{"tenant", "outcome"},
		)

		resolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkrelay_resolutions_total",
				Help: "Link resolutions, labeled by tenant, mode, and outcome.",
			},
			[]string{"tenant", "mode", "outcome"},
		)

		cacheLookups = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkrelay_cache_lookups_total",
				Help: "Dynamic-link cache lookups, labeled by result.",
			},
			[]string{"result"},
		)

		broadcastsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkrelay_broadcasts_total",
				Help: "Scheduled broadcast sends, labeled by tenant and status.",
			},
			[]string{"tenant", "status"},
		)

		browserPages = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkrelay_browser_pages_in_use",
				Help: "Browser pages currently held by in-flight resolutions.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpdate counts one inbound webhook update.
func ObserveUpdate(tenant, outcome string) {
	updatesTotal.WithLabelValues(tenant, outcome).Inc()
}

// ObserveResolution counts one link resolution attempt.
func ObserveResolution(tenant, mode, outcome string) {
	resolutionsTotal.WithLabelValues(tenant, mode, outcome).Inc()
}

// ObserveCacheLookup counts a cache hit or miss.
func ObserveCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// ObserveBroadcast counts one scheduled send attempt.
func ObserveBroadcast(tenant, status string) {
	broadcastsTotal.WithLabelValues(tenant, status).Inc()
}

// SetBrowserPagesInUse records the current page gauge.
func SetBrowserPagesInUse(n int64) {
	browserPages.Set(float64(n))
}
