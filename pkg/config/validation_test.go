package config

import (
	"strings"
	"testing"

	"github.com/marmos91/sunrpc/internal/bytesize"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_ZeroRetransmitThreshold(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Client.RetransmitAfter = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for retransmit_after 0")
	}
}

func TestValidate_NegativeTickPeriod(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Client.TickPeriod = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative tick period")
	}
}

func TestValidate_LocalAddress(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Client.LocalAddress = "no-port"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for local address without port")
	}
	if !strings.Contains(err.Error(), "local_address") {
		t.Errorf("Expected local_address in error, got: %v", err)
	}
}

func TestValidate_DatagramSizeBounds(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Client.MaxDatagramSize = 32

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for datagram smaller than the call header")
	}

	cfg.Client.MaxDatagramSize = 128 * bytesize.KiB
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for datagram above the UDP limit")
	}
}

func TestValidate_MachineNameLength(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Client.MachineName = strings.Repeat("x", 256)

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for machine name over 255 bytes")
	}
}

func TestValidate_ProfileTypes(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "bogus"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unknown profile type")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("Expected the bad profile type in error, got: %v", err)
	}
}
