package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names
const (
	SpanRPCCall = "rpc.call"
)

// Span event names
const (
	EventRetransmit        = "rpc.retransmit"
	EventRetransmitFailure = "rpc.retransmit_failed"
)

// Attribute keys, following the OpenTelemetry RPC semantic conventions where
// one exists.
const (
	AttrRPCSystem     = "rpc.system"
	AttrRPCXID        = "rpc.xid"
	AttrRPCProgram    = "rpc.onc.program"
	AttrRPCVersion    = "rpc.onc.version"
	AttrRPCProcedure  = "rpc.onc.procedure"
	AttrRPCAcceptStat = "rpc.onc.accept_stat"
	AttrRPCRetries    = "rpc.onc.retries"
	AttrRPCOutcome    = "rpc.onc.outcome"
	AttrServerAddress = "server.address"
	AttrServerPort    = "server.port"
	AttrClientID      = "rpc.client.id"
)

// RPCXID returns an attribute for a transaction id, hex formatted.
func RPCXID(xid uint32) attribute.KeyValue {
	return attribute.String(AttrRPCXID, fmt.Sprintf("0x%08x", xid))
}

func RPCProgram(prog uint32) attribute.KeyValue {
	return attribute.Int64(AttrRPCProgram, int64(prog))
}

func RPCVersion(vers uint32) attribute.KeyValue {
	return attribute.Int64(AttrRPCVersion, int64(vers))
}

func RPCProcedure(proc uint32) attribute.KeyValue {
	return attribute.Int64(AttrRPCProcedure, int64(proc))
}

func RPCAcceptStat(stat string) attribute.KeyValue {
	return attribute.String(AttrRPCAcceptStat, stat)
}

func RPCRetries(n int) attribute.KeyValue {
	return attribute.Int(AttrRPCRetries, n)
}

func RPCOutcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrRPCOutcome, outcome)
}

func ServerAddress(addr string) attribute.KeyValue {
	return attribute.String(AttrServerAddress, addr)
}

func ServerPort(port uint16) attribute.KeyValue {
	return attribute.Int(AttrServerPort, int(port))
}

func ClientID(id string) attribute.KeyValue {
	return attribute.String(AttrClientID, id)
}

// StartCallSpan starts a client span for one RPC call. The span outlives the
// issuing function: it is ended when the call completes, times out or is
// abandoned.
func StartCallSpan(ctx context.Context, xid, prog, vers, proc uint32, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	base := []attribute.KeyValue{
		attribute.String(AttrRPCSystem, "onc_rpc"),
		RPCXID(xid),
		RPCProgram(prog),
		RPCVersion(vers),
		RPCProcedure(proc),
	}
	return StartSpan(ctx, SpanRPCCall,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(base, attrs...)...),
	)
}

// EndCallSpan records the outcome on span and ends it.
func EndCallSpan(span trace.Span, outcome string, err error, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(append(attrs, RPCOutcome(outcome))...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
