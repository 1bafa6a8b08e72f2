package metrics

import (
	"time"
)

// Completion outcomes reported to RecordCompletion.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeDenied  = "denied"
	OutcomeTimeout = "timeout"
)

// Reasons reported to RecordDroppedDatagram.
const (
	DropMalformed  = "malformed"
	DropUnknownXID = "unknown_xid"
)

// RPCMetrics provides observability for the RPC client.
//
// The interface is optional - pass nil to disable metrics collection with
// zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	cfg.Metrics = prometheus.NewRPCMetrics()
//
//	// Without metrics
//	cfg.Metrics = nil
type RPCMetrics interface {
	// RecordCallIssued counts a call that left the client for the first time.
	RecordCallIssued(program, procedure uint32)

	// RecordRetransmit counts a retransmission handed to the transport.
	RecordRetransmit(program, procedure uint32)

	// RecordRetransmitFailure counts a retransmission the transport refused.
	// The call is retried on the next tick.
	RecordRetransmitFailure()

	// RecordCompletion records a finished call with its outcome
	// (OutcomeSuccess, OutcomeFailed, OutcomeDenied, OutcomeTimeout) and the
	// time since it was issued.
	RecordCompletion(program, procedure uint32, outcome string, duration time.Duration)

	// RecordDroppedDatagram counts an inbound datagram that matched no call
	// or could not be decoded.
	RecordDroppedDatagram(reason string)

	// SetPendingCalls updates the number of outstanding calls.
	SetPendingCalls(count int)
}
