package config

import (
	"strings"

	"github.com/marmos91/sunrpc/internal/bytesize"
	"github.com/marmos91/sunrpc/pkg/metrics"
	"github.com/marmos91/sunrpc/pkg/portmap"
	"github.com/marmos91/sunrpc/pkg/rpc"
	"github.com/marmos91/sunrpc/pkg/rpc/client"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyClientDefaults(&cfg.Client)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = metrics.DefaultPort
	}
}

// applyClientDefaults mirrors the RPC client's own defaults so a saved
// config shows the effective values.
func applyClientDefaults(cfg *ClientConfig) {
	if cfg.Server == "" {
		cfg.Server = "127.0.0.1"
	}
	if cfg.PortmapPort == 0 {
		cfg.PortmapPort = portmap.DefaultPort
	}
	if cfg.LocalAddress == "" {
		cfg.LocalAddress = "0.0.0.0:0"
	}
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = client.DefaultTickPeriod
	}
	if cfg.RetransmitAfter == 0 {
		cfg.RetransmitAfter = client.DefaultRetransmitAfter
	}
	if cfg.MaxRetransmits == 0 {
		cfg.MaxRetransmits = client.DefaultMaxRetransmits
	}
	if cfg.Buckets == 0 {
		cfg.Buckets = client.DefaultBuckets
	}
	if cfg.MaxDatagramSize == 0 {
		cfg.MaxDatagramSize = bytesize.ByteSize(client.DefaultMaxDatagramSize)
	}
	if cfg.MachineName == "" {
		cfg.MachineName = rpc.DefaultMachineName
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
