package rpc

// RPCVersion is the only ONC RPC protocol version spoken (RFC 5531).
const RPCVersion = 2

// Well-known program numbers.
const (
	// ProgramPortmap is the port mapper program (RFC 1833), normally on port 111.
	ProgramPortmap = 100000

	// ProgramNFS is the Network File System program (RFC 1813).
	ProgramNFS = 100003

	// ProgramMount is the MOUNT program used before NFS access (RFC 1813 Appendix I).
	ProgramMount = 100005
)

// Message types (RFC 5531 Section 9).
const (
	RPCCall  = 0
	RPCReply = 1
)

// Reply states.
const (
	// RPCMsgAccepted means the server recognized the program and tried to run
	// the procedure. The accept_stat says how that went.
	RPCMsgAccepted = 0

	// RPCMsgDenied means the call was rejected before dispatch, either for an
	// RPC version mismatch or an authentication failure.
	RPCMsgDenied = 1
)

// Accept status values carried by accepted replies.
const (
	RPCSuccess      = 0
	RPCProgUnavail  = 1
	RPCProgMismatch = 2
	RPCProcUnavail  = 3
	RPCGarbageArgs  = 4
	RPCSystemErr    = 5
)

// Reject status values carried by denied replies.
const (
	RPCMismatch  = 0
	RPCAuthError = 1
)

// AcceptStatNone is reported as the accept status of a denied reply, which
// carries no accept_stat on the wire.
const AcceptStatNone uint32 = 0xFFFFFFFF

// Authentication flavors.
const (
	AuthNull = 0
	AuthUnix = 1
)

// DefaultMachineName is the host name placed in the AUTH_UNIX credential
// when none is configured.
const DefaultMachineName = "barrelfish"

// ReplyHeaderMinLen is the smallest datagram that can hold xid, message type
// and reply state.
const ReplyHeaderMinLen = 12

// AcceptStatString returns a human-readable name for an accept status.
func AcceptStatString(stat uint32) string {
	switch stat {
	case RPCSuccess:
		return "SUCCESS"
	case RPCProgUnavail:
		return "PROG_UNAVAIL"
	case RPCProgMismatch:
		return "PROG_MISMATCH"
	case RPCProcUnavail:
		return "PROC_UNAVAIL"
	case RPCGarbageArgs:
		return "GARBAGE_ARGS"
	case RPCSystemErr:
		return "SYSTEM_ERR"
	case AcceptStatNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// RejectStatString returns a human-readable name for a reject status.
func RejectStatString(stat uint32) string {
	switch stat {
	case RPCMismatch:
		return "RPC_MISMATCH"
	case RPCAuthError:
		return "AUTH_ERROR"
	default:
		return "UNKNOWN"
	}
}
