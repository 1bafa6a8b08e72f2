package client

import (
	"net/netip"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/sunrpc/pkg/rpc"
)

// CallState is the retransmission state of a pending call.
type CallState int

const (
	// StateFresh is a call that has just been sent.
	StateFresh CallState = iota
	// StateWaiting is a call counting ticks towards the retransmit threshold.
	StateWaiting
	// StateRetransmitting is a call whose threshold expired this tick.
	StateRetransmitting
	// StateFailed is a call that exhausted its retransmissions. Terminal.
	StateFailed
)

func (s CallState) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateWaiting:
		return "waiting"
	case StateRetransmitting:
		return "retransmitting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// tickAction tells the sweep what to do with a call after a tick.
type tickAction int

const (
	actionNone tickAction = iota
	actionRetransmit
	actionFail
)

// pendingCall is one in-flight request. It owns buf from insertion until
// it leaves the table; whoever removes it releases buf exactly once.
type pendingCall struct {
	xid    uint32
	header rpc.CallHeader
	dest   netip.AddrPort

	// buf is the pooled backing array, req the encoded datagram within it.
	// req is retransmitted byte-for-byte.
	buf []byte
	req []byte

	ticks   int
	retries int
	state   CallState

	handler Handler
	issued  time.Time
	span    trace.Span
}

// tick advances the call by one timer firing and reports what the sweep
// must do next:
//
//  1. ticks++
//  2. ticks < threshold: keep waiting
//  3. retries already at maxRetries: fail
//  4. otherwise: retransmit, then report the result via retransmitted
func (c *pendingCall) tick(threshold, maxRetries int) tickAction {
	c.ticks++
	if c.ticks < threshold {
		c.state = StateWaiting
		return actionNone
	}
	if c.retries >= maxRetries {
		c.state = StateFailed
		return actionFail
	}
	c.state = StateRetransmitting
	return actionRetransmit
}

// retransmitted records the transport's answer to a retransmission. A
// failed send rolls the tick back so the next firing tries again without
// consuming a retry.
func (c *pendingCall) retransmitted(err error) {
	if err != nil {
		c.ticks--
	} else {
		c.retries++
		c.ticks = 0
	}
	c.state = StateWaiting
}
