// Package metrics defines Prometheus metrics for the navigation shell,
// covering mounts, feature flag fetches, access resolutions and HTTP routes.
package metrics
