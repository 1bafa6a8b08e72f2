package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrEncodingOverflow is returned when a message does not fit in the
	// buffer (or datagram size) it is being encoded into.
	ErrEncodingOverflow = errors.New("rpc: encoding overflow")

	// ErrMalformed is returned when a datagram cannot be parsed as an RPC reply.
	ErrMalformed = errors.New("rpc: malformed reply")

	// ErrUnknownTransaction is reported for replies whose xid matches no
	// pending call.
	ErrUnknownTransaction = errors.New("rpc: unknown transaction id")

	// ErrTimeout is delivered to a call that exhausted its retransmissions.
	ErrTimeout = errors.New("rpc: call timed out")

	// ErrTransportSend wraps a failure to hand a datagram to the transport.
	ErrTransportSend = errors.New("rpc: transport send failed")

	// ErrClientClosed is returned for calls issued after teardown.
	ErrClientClosed = errors.New("rpc: client closed")
)

// ReplyError describes a reply that arrived but did not report success:
// either a denied call or an accepted call with a non-SUCCESS accept_stat.
type ReplyError struct {
	XID        uint32
	Accepted   bool
	AcceptStat uint32
	RejectStat uint32
}

func (e *ReplyError) Error() string {
	if !e.Accepted {
		return fmt.Sprintf("rpc: call denied (xid=0x%08x, reject_stat=%s)", e.XID, RejectStatString(e.RejectStat))
	}
	return fmt.Sprintf("rpc: call failed (xid=0x%08x, accept_stat=%s)", e.XID, AcceptStatString(e.AcceptStat))
}
