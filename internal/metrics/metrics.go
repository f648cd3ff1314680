// package metrics holds the process-wide Prometheus collectors
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes recorded by [RecordRefresh].
const (
	RefreshApplied   = "refreshed"
	RefreshDiscarded = "discarded"
	RefreshFailed    = "failed"
	RefreshSkipped   = "skipped"
)

var (
	// ProviderRequests counts catalog requests by endpoint and outcome (ok, rejected, unreachable)
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ytstream_provider_requests_total",
		Help: "Total number of provider requests",
	}, []string{"endpoint", "outcome"})

	// ProviderLatency observes round trip time per endpoint
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ytstream_provider_request_seconds",
		Help:    "Provider request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// VisitorUpdates counts visitor token replacements
	VisitorUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytstream_visitor_token_updates_total",
		Help: "Total number of visitor token replacements",
	})

	// Refreshes counts lifecycle refresh attempts by outcome
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ytstream_refreshes_total",
		Help: "Total number of stream URL refresh attempts",
	}, []string{"outcome"})

	// DroppedEvents counts refresh events nobody was ready to receive
	DroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytstream_dropped_events_total",
		Help: "Total number of refresh events dropped because the consumer was busy",
	})

	// TrackedItems is the number of queue items with a URL binding
	TrackedItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ytstream_tracked_items",
		Help: "Number of queue items tracked for expiry",
	})

	// CacheLookups counts asset cache lookups by result (hit, miss, stale)
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ytstream_cache_lookups_total",
		Help: "Total number of asset cache lookups",
	}, []string{"result"})

	// WebsocketClients is the number of connected event listeners
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ytstream_websocket_clients",
		Help: "Number of connected websocket clients",
	})

	// HTTPRequests counts bridge requests by route and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ytstream_http_requests_total",
		Help: "Total number of HTTP bridge requests",
	}, []string{"method", "route", "status"})
)

// RecordProviderRequest counts a request and observes its latency
func RecordProviderRequest(endpoint, outcome string, elapsed time.Duration) {
	ProviderRequests.WithLabelValues(endpoint, outcome).Inc()
	ProviderLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordRefresh increments the refresh counter for an outcome
func RecordRefresh(outcome string) {
	Refreshes.WithLabelValues(outcome).Inc()
}

// RecordDroppedEvent increments the dropped event counter
func RecordDroppedEvent() {
	DroppedEvents.Inc()
}

// RecordVisitorUpdate increments the visitor token counter
func RecordVisitorUpdate() {
	VisitorUpdates.Inc()
}

// RecordCacheLookup increments the cache lookup counter for a result
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// SetTrackedItems sets the number of tracked items
func SetTrackedItems(count int) {
	TrackedItems.Set(float64(count))
}

// SetWebsocketClients sets the number of connected websocket clients
func SetWebsocketClients(count int) {
	WebsocketClients.Set(float64(count))
}

// RecordHTTPRequest increments the bridge request counter
func RecordHTTPRequest(method, route string, status int) {
	HTTPRequests.WithLabelValues(method, route, statusText(status)).Inc()
}

func statusText(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
