package rpc

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"

	rpcxdr "github.com/marmos91/sunrpc/internal/xdr"
)

// CallHeader identifies a single remote procedure invocation.
type CallHeader struct {
	XID       uint32
	Program   uint32
	Version   uint32
	Procedure uint32
}

// Credential is the fixed AUTH_UNIX placeholder credential sent with every
// call: stamp 0, uid 0, gid 0 and no supplementary groups. Only the machine
// name varies.
type Credential struct {
	MachineName string
}

// unixCredBody is the AUTH_UNIX body in XDR order (RFC 5531 Appendix A).
type unixCredBody struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

// BodyLen returns the encoded length of the credential body in bytes:
// the padded machine name plus five words (stamp, name length, uid, gid,
// gid count).
func (c Credential) BodyLen() uint32 {
	return rpcxdr.RoundUp(uint32(len(c.MachineName))) + 5*rpcxdr.Unit
}

// CallHeaderLen returns the number of bytes EncodeCall writes for cred:
// ten fixed words plus the credential body.
func CallHeaderLen(cred Credential) int {
	return 10*rpcxdr.Unit + int(cred.BodyLen())
}

// EncodeCall writes a CALL envelope into dst's backing array and returns the
// encoded prefix.
//
// Wire format (every field a big-endian uint32 unless noted):
//
//	xid | CALL | rpcvers=2 | prog | vers | proc
//	cred flavor=AUTH_UNIX | cred length | stamp=0 | machine name (XDR string) | uid=0 | gid=0 | gids=0
//	verf flavor=AUTH_NULL | verf length=0
//
// The returned slice aliases dst, so the caller can append procedure
// arguments into the remaining capacity without reallocating. If
// cap(dst) is smaller than CallHeaderLen(cred), ErrEncodingOverflow is
// returned and dst is left untouched.
func EncodeCall(dst []byte, hdr CallHeader, cred Credential) ([]byte, error) {
	need := CallHeaderLen(cred)
	if cap(dst) < need {
		return nil, fmt.Errorf("%w: call header needs %d bytes, buffer has %d", ErrEncodingOverflow, need, cap(dst))
	}

	buf := bytes.NewBuffer(dst[:0])

	// Writes into a bytes.Buffer with enough capacity never fail.
	_ = rpcxdr.WriteUint32(buf, hdr.XID)
	_ = rpcxdr.WriteUint32(buf, RPCCall)
	_ = rpcxdr.WriteUint32(buf, RPCVersion)
	_ = rpcxdr.WriteUint32(buf, hdr.Program)
	_ = rpcxdr.WriteUint32(buf, hdr.Version)
	_ = rpcxdr.WriteUint32(buf, hdr.Procedure)

	_ = rpcxdr.WriteUint32(buf, AuthUnix)
	_ = rpcxdr.WriteUint32(buf, cred.BodyLen())
	body := unixCredBody{MachineName: cred.MachineName, GIDs: []uint32{}}
	if _, err := xdr.Marshal(buf, &body); err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}

	_ = rpcxdr.WriteUint32(buf, AuthNull)
	_ = rpcxdr.WriteUint32(buf, 0)

	return buf.Bytes(), nil
}

// DecodeCallHeader parses a CALL envelope, skipping both opaque_auth
// fields, and returns a cursor positioned at the procedure arguments.
// It lets in-process responders and test servers answer calls built by
// EncodeCall.
func DecodeCallHeader(data []byte) (CallHeader, *Cursor, error) {
	var hdr CallHeader
	cur := NewCursor(data)

	var words [6]uint32
	for i := range words {
		w, err := cur.Uint32()
		if err != nil {
			return hdr, nil, fmt.Errorf("%w: truncated call header", ErrMalformed)
		}
		words[i] = w
	}
	if words[1] != RPCCall {
		return hdr, nil, fmt.Errorf("%w: message type %d is not CALL", ErrMalformed, words[1])
	}
	if words[2] != RPCVersion {
		return hdr, nil, fmt.Errorf("%w: rpc version %d", ErrMalformed, words[2])
	}
	hdr = CallHeader{XID: words[0], Program: words[3], Version: words[4], Procedure: words[5]}

	// Credential then verifier, each flavor + opaque body
	for range 2 {
		if _, err := cur.Uint32(); err != nil {
			return hdr, nil, fmt.Errorf("%w: missing auth flavor", ErrMalformed)
		}
		n, err := cur.Uint32()
		if err != nil {
			return hdr, nil, fmt.Errorf("%w: missing auth length", ErrMalformed)
		}
		if uint64(n) > uint64(cur.Len()) {
			return hdr, nil, fmt.Errorf("%w: auth length %d exceeds remaining %d bytes", ErrMalformed, n, cur.Len())
		}
		if err := cur.Skip(rpcxdr.RoundUp(n)); err != nil {
			return hdr, nil, fmt.Errorf("%w: truncated auth body", ErrMalformed)
		}
	}

	return hdr, cur, nil
}
