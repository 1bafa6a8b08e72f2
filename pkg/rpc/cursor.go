package rpc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	xdr "github.com/rasky/go-xdr/xdr2"

	rpcxdr "github.com/marmos91/sunrpc/internal/xdr"
)

// Cursor reads XDR items from the bytes that follow a reply envelope.
//
// A Cursor handed to a completion handler aliases the received datagram and
// is only valid until the handler returns.
type Cursor struct {
	data []byte
	off  int
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Read implements io.Reader so the cursor can feed xdr.Unmarshal.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.off >= len(c.data) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.off:])
	c.off += n
	return n, nil
}

// Len returns the number of unread bytes.
func (c *Cursor) Len() int {
	return len(c.data) - c.off
}

// Remaining returns the unread bytes without consuming them.
func (c *Cursor) Remaining() []byte {
	return c.data[c.off:]
}

// Skip advances the cursor by n bytes, failing if fewer remain.
func (c *Cursor) Skip(n uint32) error {
	if uint64(n) > uint64(c.Len()) {
		return io.ErrUnexpectedEOF
	}
	c.off += int(n)
	return nil
}

// Uint32 reads one XDR unsigned integer.
func (c *Cursor) Uint32() (uint32, error) {
	return rpcxdr.DecodeUint32(c)
}

// Uint64 reads one XDR unsigned hyper.
func (c *Cursor) Uint64() (uint64, error) {
	return rpcxdr.DecodeUint64(c)
}

// Bool reads one XDR boolean.
func (c *Cursor) Bool() (bool, error) {
	return rpcxdr.DecodeBool(c)
}

// Opaque reads variable-length opaque data. The result is a copy.
func (c *Cursor) Opaque() ([]byte, error) {
	return rpcxdr.DecodeOpaque(c)
}

// String reads an XDR string.
func (c *Cursor) String() (string, error) {
	return rpcxdr.DecodeString(c)
}

// Decode unmarshals the next item into v using struct-tag driven XDR.
func (c *Cursor) Decode(v any) error {
	if _, err := xdr.Unmarshal(c, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// ArgEncoder appends procedure arguments to an encoded call.
type ArgEncoder func(buf *bytes.Buffer) error

// NoArgs is the encoder for procedures without arguments, such as NULL.
func NoArgs(*bytes.Buffer) error { return nil }

// XDRArgs returns an encoder that marshals v with struct-tag driven XDR.
func XDRArgs(v any) ArgEncoder {
	return func(buf *bytes.Buffer) error {
		if _, err := xdr.Marshal(buf, v); err != nil {
			return fmt.Errorf("encode %T: %w", v, err)
		}
		return nil
	}
}

// Uint32Args returns an encoder that writes each value as one XDR word.
func Uint32Args(vals ...uint32) ArgEncoder {
	return func(buf *bytes.Buffer) error {
		for _, v := range vals {
			if err := rpcxdr.WriteUint32(buf, v); err != nil {
				return err
			}
		}
		return nil
	}
}

// IsMalformed reports whether err came from decoding a bad datagram.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
