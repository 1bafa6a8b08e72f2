package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/sunrpc/internal/telemetry"
	"github.com/marmos91/sunrpc/pkg/rpc"
	"github.com/marmos91/sunrpc/pkg/transport/udp"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
// Log level normalization happens in ApplyDefaults; both cases pass here.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs validation that struct tags cannot express.
func validateCustomRules(cfg *Config) error {
	c := &cfg.Client

	if _, _, err := net.SplitHostPort(c.LocalAddress); err != nil {
		return fmt.Errorf("client.local_address: %q is not host:port: %w", c.LocalAddress, err)
	}

	header := rpc.CallHeaderLen(rpc.Credential{MachineName: c.MachineName})
	if c.MaxDatagramSize.Int64() < int64(header) {
		return fmt.Errorf("client.max_datagram_size: %s cannot hold a %d byte call header", c.MaxDatagramSize, header)
	}
	if c.MaxDatagramSize.Int64() > udp.MaxDatagramSize {
		return fmt.Errorf("client.max_datagram_size: %s exceeds the UDP limit of %d bytes", c.MaxDatagramSize, udp.MaxDatagramSize)
	}

	var errs []error
	for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
		if !telemetry.ValidProfileType(pt) {
			errs = append(errs, fmt.Errorf("telemetry.profiling.profile_types: unknown profile type %q", pt))
		}
	}
	return errors.Join(errs...)
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
