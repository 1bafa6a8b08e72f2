package client

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/marmos91/sunrpc/pkg/bufpool"
	"github.com/marmos91/sunrpc/pkg/metrics"
	"github.com/marmos91/sunrpc/pkg/rpc"
)

// Defaults. With these, a call that never gets a reply is retransmitted
// every 600ms and given up on after 61 transmissions, about 36.6s.
const (
	DefaultTickPeriod      = 200 * time.Millisecond
	DefaultRetransmitAfter = 3
	DefaultMaxRetransmits  = 60
	DefaultBuckets         = 64
	DefaultMaxDatagramSize = bufpool.DefaultMediumSize
)

// Config configures a Client.
type Config struct {
	// Server is the remote host every call is sent to. Calls choose the port.
	Server netip.Addr

	// TickPeriod is the retransmission timer interval.
	TickPeriod time.Duration

	// RetransmitAfter is the number of ticks without a reply before a call
	// is sent again.
	RetransmitAfter int

	// MaxRetransmits is the number of retransmissions before a call fails
	// with rpc.ErrTimeout.
	MaxRetransmits int

	// Buckets is the pending-call table size.
	Buckets int

	// MaxDatagramSize bounds an encoded call, envelope plus arguments.
	MaxDatagramSize int

	// Credential is the AUTH_UNIX identity placed in every call.
	Credential rpc.Credential

	// Metrics receives client metrics. Nil disables collection.
	Metrics metrics.RPCMetrics
}

// ApplyDefaults fills zero fields with the package defaults.
func (c *Config) ApplyDefaults() {
	if c.TickPeriod == 0 {
		c.TickPeriod = DefaultTickPeriod
	}
	if c.RetransmitAfter == 0 {
		c.RetransmitAfter = DefaultRetransmitAfter
	}
	if c.MaxRetransmits == 0 {
		c.MaxRetransmits = DefaultMaxRetransmits
	}
	if c.Buckets == 0 {
		c.Buckets = DefaultBuckets
	}
	if c.MaxDatagramSize == 0 {
		c.MaxDatagramSize = DefaultMaxDatagramSize
	}
	if c.Credential.MachineName == "" {
		c.Credential.MachineName = rpc.DefaultMachineName
	}
}

// Validate checks a defaulted config.
func (c *Config) Validate() error {
	var errs []error
	if !c.Server.IsValid() {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.TickPeriod < 0 {
		errs = append(errs, fmt.Errorf("tick period %s must be positive", c.TickPeriod))
	}
	if c.RetransmitAfter < 1 {
		errs = append(errs, fmt.Errorf("retransmit_after %d must be at least 1", c.RetransmitAfter))
	}
	if c.MaxRetransmits < 0 {
		errs = append(errs, fmt.Errorf("max_retransmits %d must not be negative", c.MaxRetransmits))
	}
	if c.Buckets < 1 {
		errs = append(errs, fmt.Errorf("buckets %d must be at least 1", c.Buckets))
	}
	if c.MaxDatagramSize < rpc.CallHeaderLen(c.Credential) {
		errs = append(errs, fmt.Errorf("max datagram size %d cannot hold a %d byte call header",
			c.MaxDatagramSize, rpc.CallHeaderLen(c.Credential)))
	}
	return errors.Join(errs...)
}

// WorstCaseLatency is the longest a call can stay pending:
// threshold × (retransmits + 1) × tick period.
func (c *Config) WorstCaseLatency() time.Duration {
	return time.Duration(c.RetransmitAfter*(c.MaxRetransmits+1)) * c.TickPeriod
}
