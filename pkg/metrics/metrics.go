package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Mount metrics
	ShellMounts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navshell_mounts_total",
		Help: "Total number of navigation shell instances mounted",
	})
	ShellUnmounts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navshell_unmounts_total",
		Help: "Total number of navigation shell instances torn down",
	})

	// Lookup metrics
	FeatureFlagFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navshell_feature_flag_fetches_total",
		Help: "Total number of feature flag fetches grouped by outcome (success/failure)",
	}, []string{"outcome"})
	AccessResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navshell_access_resolutions_total",
		Help: "Total number of access resolutions grouped by resolver and resulting status",
	}, []string{"resolver", "status"})
	AccessResolutionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navshell_access_resolution_errors_total",
		Help: "Total number of access resolutions that failed and were treated as denied",
	}, []string{"resolver"})
	LookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "navshell_lookup_duration_seconds",
		Help:    "Duration of feature flag and access lookups",
		Buckets: prometheus.DefBuckets,
	}, []string{"lookup"})

	// HTTP metrics
	NavigationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navshell_navigation_requests_total",
		Help: "Total number of navigation and page requests grouped by route and whether the view was complete",
	}, []string{"route", "complete"})
	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navshell_rate_limited_total",
		Help: "Total number of requests rejected by the per-IP rate limiter",
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(ShellMounts)
	prometheus.MustRegister(ShellUnmounts)
	prometheus.MustRegister(FeatureFlagFetches)
	prometheus.MustRegister(AccessResolutions)
	prometheus.MustRegister(AccessResolutionErrors)
	prometheus.MustRegister(LookupDuration)
	prometheus.MustRegister(NavigationRequests)
	prometheus.MustRegister(RateLimited)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
