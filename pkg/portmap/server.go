package portmap

import (
	"bytes"
	"net/netip"

	"github.com/marmos91/sunrpc/internal/logger"
	"github.com/marmos91/sunrpc/internal/xdr"
	"github.com/marmos91/sunrpc/pkg/rpc"
	"github.com/marmos91/sunrpc/pkg/transport"
)

// procedure is a dispatch table entry. A nil result with ok=false means
// the arguments could not be decoded.
type procedure struct {
	name    string
	handler func(r *Registry, args *rpc.Cursor) (result []byte, ok bool)
}

var dispatchTable = map[uint32]procedure{
	ProcNull: {
		name: "NULL",
		handler: func(*Registry, *rpc.Cursor) ([]byte, bool) {
			return nil, true
		},
	},
	ProcSet: {
		name: "SET",
		handler: func(r *Registry, args *rpc.Cursor) ([]byte, bool) {
			var m Mapping
			if err := args.Decode(&m); err != nil {
				return nil, false
			}
			return encodeBool(r.Set(m)), true
		},
	},
	ProcUnset: {
		name: "UNSET",
		handler: func(r *Registry, args *rpc.Cursor) ([]byte, bool) {
			var m Mapping
			if err := args.Decode(&m); err != nil {
				return nil, false
			}
			return encodeBool(r.Unset(m.Program, m.Version)), true
		},
	},
	ProcGetport: {
		name: "GETPORT",
		handler: func(r *Registry, args *rpc.Cursor) ([]byte, bool) {
			var m Mapping
			if err := args.Decode(&m); err != nil {
				return nil, false
			}
			var buf bytes.Buffer
			_ = xdr.WriteUint32(&buf, r.Getport(m.Program, m.Version, m.Protocol))
			return buf.Bytes(), true
		},
	},
	ProcDump: {
		name: "DUMP",
		handler: func(r *Registry, _ *rpc.Cursor) ([]byte, bool) {
			return encodeDump(r.Dump()), true
		},
	},
}

func encodeBool(v bool) []byte {
	var buf bytes.Buffer
	_ = xdr.WriteBool(&buf, v)
	return buf.Bytes()
}

// encodeDump writes mappings as an XDR optional-data list.
func encodeDump(mappings []Mapping) []byte {
	var buf bytes.Buffer
	for _, m := range mappings {
		_ = xdr.WriteBool(&buf, true)
		_ = xdr.WriteUint32(&buf, m.Program)
		_ = xdr.WriteUint32(&buf, m.Version)
		_ = xdr.WriteUint32(&buf, m.Protocol)
		_ = xdr.WriteUint32(&buf, m.Port)
	}
	_ = xdr.WriteBool(&buf, false)
	return buf.Bytes()
}

// Server answers portmap calls from a Registry.
type Server struct {
	registry *Registry
}

// NewServer serves reg.
func NewServer(reg *Registry) *Server {
	return &Server{registry: reg}
}

// Handle processes one CALL datagram and returns the REPLY to send back,
// or nil when the datagram is not a decodable call.
func (s *Server) Handle(data []byte) []byte {
	call, args, err := rpc.DecodeCallHeader(data)
	if err != nil {
		logger.Debug("Portmap: dropping undecodable call", logger.KeySize, len(data), logger.Err(err))
		return nil
	}

	if call.Program != Program {
		logger.Debug("Portmap: wrong program", logger.XID(call.XID), logger.Program(call.Program))
		return rpc.EncodeAcceptedReply(call.XID, rpc.RPCProgUnavail, nil)
	}
	if call.Version != Version {
		logger.Debug("Portmap: version mismatch", logger.XID(call.XID), logger.Version(call.Version))
		var buf bytes.Buffer
		_ = xdr.WriteUint32(&buf, Version)
		_ = xdr.WriteUint32(&buf, Version)
		return rpc.EncodeAcceptedReply(call.XID, rpc.RPCProgMismatch, buf.Bytes())
	}

	proc, ok := dispatchTable[call.Procedure]
	if !ok {
		logger.Debug("Portmap: procedure unavailable", logger.XID(call.XID), logger.Procedure(call.Procedure))
		return rpc.EncodeAcceptedReply(call.XID, rpc.RPCProcUnavail, nil)
	}

	result, ok := proc.handler(s.registry, args)
	if !ok {
		logger.Debug("Portmap: garbage arguments", logger.XID(call.XID), logger.KeyProcedure, proc.name)
		return rpc.EncodeAcceptedReply(call.XID, rpc.RPCGarbageArgs, nil)
	}

	logger.Debug("Portmap RPC", logger.XID(call.XID), logger.KeyProcedure, proc.name)
	return rpc.EncodeAcceptedReply(call.XID, rpc.RPCSuccess, result)
}

// Serve answers every datagram arriving on tr. Replies go back to the
// sender. The caller keeps ownership of tr.
func (s *Server) Serve(tr transport.Transport) {
	tr.SetReceiveHandler(func(data []byte, from netip.AddrPort) {
		reply := s.Handle(data)
		if reply == nil {
			return
		}
		if err := tr.Send(reply, from); err != nil {
			logger.Debug("Portmap: reply send failed", logger.RemoteAddr(from), logger.Err(err))
		}
	})
}
