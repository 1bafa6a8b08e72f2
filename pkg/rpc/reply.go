package rpc

import (
	"bytes"
	"encoding/binary"
	"fmt"

	rpcxdr "github.com/marmos91/sunrpc/internal/xdr"
)

// ReplyHeader is the decoded envelope of a REPLY message.
type ReplyHeader struct {
	XID uint32

	// ReplyState is RPCMsgAccepted or RPCMsgDenied as sent by the server.
	ReplyState uint32

	// Accepted is true when ReplyState is RPCMsgAccepted.
	Accepted bool

	// AcceptStat is the accept_stat of an accepted reply, or AcceptStatNone.
	AcceptStat uint32
}

// DecodeReplyHeader parses the REPLY envelope at the start of data.
//
// For accepted replies the verifier (flavor, length, body) is skipped and
// the accept status read; the returned cursor then points at the procedure
// results. For denied replies AcceptStat is AcceptStatNone and the cursor
// points at the reject_stat.
//
// ErrMalformed is returned when data is shorter than ReplyHeaderMinLen,
// the message type is not REPLY, the verifier claims more bytes than remain,
// or the accept status is missing.
func DecodeReplyHeader(data []byte) (ReplyHeader, *Cursor, error) {
	var hdr ReplyHeader

	if len(data) < ReplyHeaderMinLen {
		return hdr, nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformed, len(data), ReplyHeaderMinLen)
	}

	hdr.XID = binary.BigEndian.Uint32(data[0:4])
	msgType := binary.BigEndian.Uint32(data[4:8])
	hdr.ReplyState = binary.BigEndian.Uint32(data[8:12])

	if msgType != RPCReply {
		return hdr, nil, fmt.Errorf("%w: message type %d is not REPLY", ErrMalformed, msgType)
	}

	cur := NewCursor(data[ReplyHeaderMinLen:])

	if hdr.ReplyState != RPCMsgAccepted {
		hdr.AcceptStat = AcceptStatNone
		return hdr, cur, nil
	}
	hdr.Accepted = true

	// Verifier: flavor, then an opaque body we never interpret
	if _, err := cur.Uint32(); err != nil {
		return hdr, nil, fmt.Errorf("%w: missing verifier flavor", ErrMalformed)
	}
	verfLen, err := cur.Uint32()
	if err != nil {
		return hdr, nil, fmt.Errorf("%w: missing verifier length", ErrMalformed)
	}
	if uint64(verfLen) > uint64(cur.Len()) {
		return hdr, nil, fmt.Errorf("%w: verifier length %d exceeds remaining %d bytes", ErrMalformed, verfLen, cur.Len())
	}
	if err := cur.Skip(rpcxdr.RoundUp(verfLen)); err != nil {
		return hdr, nil, fmt.Errorf("%w: truncated verifier padding", ErrMalformed)
	}

	hdr.AcceptStat, err = cur.Uint32()
	if err != nil {
		return hdr, nil, fmt.Errorf("%w: missing accept status", ErrMalformed)
	}

	return hdr, cur, nil
}

// EncodeAcceptedReply builds an accepted reply with an AUTH_NULL verifier,
// followed by results. It is what a server sends back and is used by tests
// and tooling that stand in for one.
func EncodeAcceptedReply(xid, acceptStat uint32, results []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 24+len(results)))
	_ = rpcxdr.WriteUint32(buf, xid)
	_ = rpcxdr.WriteUint32(buf, RPCReply)
	_ = rpcxdr.WriteUint32(buf, RPCMsgAccepted)
	_ = rpcxdr.WriteUint32(buf, AuthNull)
	_ = rpcxdr.WriteUint32(buf, 0)
	_ = rpcxdr.WriteUint32(buf, acceptStat)
	buf.Write(results)
	return buf.Bytes()
}

// EncodeDeniedReply builds a denied reply. detail carries the words that
// follow reject_stat: low/high versions for RPC_MISMATCH or the auth_stat
// for AUTH_ERROR.
func EncodeDeniedReply(xid, rejectStat uint32, detail ...uint32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 16+4*len(detail)))
	_ = rpcxdr.WriteUint32(buf, xid)
	_ = rpcxdr.WriteUint32(buf, RPCReply)
	_ = rpcxdr.WriteUint32(buf, RPCMsgDenied)
	_ = rpcxdr.WriteUint32(buf, rejectStat)
	for _, w := range detail {
		_ = rpcxdr.WriteUint32(buf, w)
	}
	return buf.Bytes()
}
