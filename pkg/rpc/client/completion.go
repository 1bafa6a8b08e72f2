package client

import (
	"time"

	"github.com/marmos91/sunrpc/pkg/metrics"
	"github.com/marmos91/sunrpc/pkg/rpc"
)

// Handler receives the outcome of a call. It is invoked exactly once per
// call, on reply or on timeout, and never for calls abandoned by Close or
// Abandon. It runs without the client lock held and may issue new calls.
type Handler func(c *Completion)

// Completion describes how a call ended.
type Completion struct {
	XID       uint32
	Program   uint32
	Version   uint32
	Procedure uint32

	// Reply is the decoded envelope. Zero when Err is set.
	Reply rpc.ReplyHeader

	// Results is positioned after the envelope: at the procedure results
	// for accepted replies, at the reject_stat for denied ones. It aliases
	// the received datagram and is only valid inside the Handler. Nil on
	// timeout.
	Results *rpc.Cursor

	// Err is rpc.ErrTimeout when retransmissions were exhausted.
	Err error

	// Retries is the number of retransmissions sent.
	Retries int

	// Elapsed is the time from issue to completion.
	Elapsed time.Duration
}

// Result folds the completion into a single error: the timeout, a
// *rpc.ReplyError for denied or unsuccessful replies, or nil on SUCCESS.
func (c *Completion) Result() error {
	if c.Err != nil {
		return c.Err
	}
	if !c.Reply.Accepted {
		re := &rpc.ReplyError{XID: c.XID, AcceptStat: rpc.AcceptStatNone}
		if c.Results != nil {
			// Peek so the handler can still read the rejection body
			re.RejectStat, _ = rpc.NewCursor(c.Results.Remaining()).Uint32()
		}
		return re
	}
	if c.Reply.AcceptStat != rpc.RPCSuccess {
		return &rpc.ReplyError{XID: c.XID, Accepted: true, AcceptStat: c.Reply.AcceptStat}
	}
	return nil
}

// outcome classifies the completion for metrics and tracing.
func (c *Completion) outcome() string {
	switch {
	case c.Err != nil:
		return metrics.OutcomeTimeout
	case !c.Reply.Accepted:
		return metrics.OutcomeDenied
	case c.Reply.AcceptStat != rpc.RPCSuccess:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeSuccess
	}
}
