package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Interaction quality
	MetricSignalLatency = "overlay.signal_latency"
	MetricInventoryAge  = "sites.inventory_age_seconds"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricSiteSelections = "business.site_selections"
	MetricDismissals     = "business.overlay_dismissals"
)
