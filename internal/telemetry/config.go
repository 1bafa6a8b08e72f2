package telemetry

// DefaultServiceName is reported when Config.ServiceName is empty.
const DefaultServiceName = "sunrpc"

// Config holds OpenTelemetry configuration
type Config struct {
	// Enabled indicates whether tracing is enabled
	Enabled bool

	// ServiceName is the service.name resource attribute
	ServiceName string

	// ServiceVersion is the service.version resource attribute
	ServiceVersion string

	// Endpoint is the OTLP/gRPC collector address (e.g., "localhost:4317")
	Endpoint string

	// Insecure disables TLS towards the collector
	Insecure bool

	// SampleRate is the fraction of calls traced, 0.0 to 1.0
	SampleRate float64
}

// DefaultConfig returns tracing disabled, pointed at a local collector and
// sampling every call once enabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    DefaultServiceName,
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// withDefaults fills the identity fields a resource cannot do without.
func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	return c
}
