// Package metrics provides Prometheus metrics collection for the RPC client.
//
// All metrics are optional - if not initialized, components receive a nil
// metrics value and skip collection entirely.
//
// Usage:
//
//	// Initialize the registry (typically in main.go)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	rpcMetrics := prometheus.NewRPCMetrics()
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the process Prometheus registry. Subsequent calls
// are ignored.
//
// If not called, GetRegistry returns nil and metrics constructors return nil.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
