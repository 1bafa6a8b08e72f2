package logger

import (
	"fmt"
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use them consistently so logs
// from the client, the transports and the CLI can be queried together.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID
	KeySpanID  = "span_id"  // OpenTelemetry span ID

	// ========================================================================
	// RPC Call
	// ========================================================================
	KeyXID        = "xid"         // Transaction id, hex
	KeyProgram    = "program"     // RPC program number
	KeyVersion    = "version"     // RPC program version
	KeyProcedure  = "procedure"   // Procedure name or number
	KeyAcceptStat = "accept_stat" // Accept status of a reply
	KeyReplyState = "reply_state" // accepted or denied
	KeyRetries    = "retries"     // Retransmissions performed
	KeyTicks      = "ticks"       // Timer ticks since last transmission
	KeyState      = "state"       // Retransmission state
	KeyPending    = "pending"     // Outstanding calls

	// ========================================================================
	// Endpoints
	// ========================================================================
	KeyClientID   = "client_id"   // RPC client instance
	KeyRemoteAddr = "remote_addr" // Peer address:port
	KeyLocalAddr  = "local_addr"  // Bound address:port
	KeyPort       = "port"        // TCP/UDP port

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyReason     = "reason"      // Why something was dropped or refused
	KeySize       = "size"        // Datagram size in bytes
)

// ============================================================================
// Field constructors
// ============================================================================

// XID returns a slog.Attr for a transaction id formatted as hex
func XID(xid uint32) slog.Attr {
	return slog.String(KeyXID, fmt.Sprintf("0x%08x", xid))
}

// Program returns a slog.Attr for an RPC program number
func Program(prog uint32) slog.Attr {
	return slog.Uint64(KeyProgram, uint64(prog))
}

// Version returns a slog.Attr for an RPC program version
func Version(vers uint32) slog.Attr {
	return slog.Uint64(KeyVersion, uint64(vers))
}

// Procedure returns a slog.Attr for a procedure number
func Procedure(proc uint32) slog.Attr {
	return slog.Uint64(KeyProcedure, uint64(proc))
}

func Retries(n int) slog.Attr {
	return slog.Int(KeyRetries, n)
}

func Ticks(n int) slog.Attr {
	return slog.Int(KeyTicks, n)
}

// RemoteAddr returns a slog.Attr for a peer address
func RemoteAddr(addr fmt.Stringer) slog.Attr {
	return slog.String(KeyRemoteAddr, addr.String())
}

// Err returns a slog.Attr for an error, or an empty attr for nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a slog.Attr with the time elapsed since start
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}
