package xdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ============================================================================
// Encoding - Go Types → Wire Format
// ============================================================================

// WriteUint32 encodes a 32-bit unsigned integer in big-endian byte order.
//
// Per RFC 4506 Section 4.2 (Unsigned Integer).
func WriteUint32(buf *bytes.Buffer, v uint32) error {
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], v)
	if _, err := buf.Write(word[:]); err != nil {
		return fmt.Errorf("write uint32: %w", err)
	}
	return nil
}

// WriteUint64 encodes a hyper unsigned integer (RFC 4506 Section 4.5).
func WriteUint64(buf *bytes.Buffer, v uint64) error {
	var word [8]byte
	binary.BigEndian.PutUint64(word[:], v)
	if _, err := buf.Write(word[:]); err != nil {
		return fmt.Errorf("write uint64: %w", err)
	}
	return nil
}

// WriteBool encodes a boolean as a uint32 where 0 = false, 1 = true.
func WriteBool(buf *bytes.Buffer, v bool) error {
	var val uint32
	if v {
		val = 1
	}
	return WriteUint32(buf, val)
}

// WriteOpaque encodes variable-length opaque data: length + data + padding.
//
// Per RFC 4506 Section 4.10:
// Format: [length:uint32][data:bytes][padding:0-3 bytes]
//
// Example:
//
//	[]byte{0x01, 0x02, 0x03} → [00 00 00 03][01 02 03][00] (8 bytes total)
func WriteOpaque(buf *bytes.Buffer, data []byte) error {
	length := uint32(len(data))
	if err := WriteUint32(buf, length); err != nil {
		return fmt.Errorf("write opaque length: %w", err)
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write opaque data: %w", err)
	}
	return WritePadding(buf, length)
}

// WriteString encodes a string with the same layout as opaque data
// (RFC 4506 Section 4.11).
//
// Example:
//
//	"abc"  → [00 00 00 03][61 62 63][00] (8 bytes total)
//	"test" → [00 00 00 04][74 65 73 74]  (8 bytes total)
func WriteString(buf *bytes.Buffer, s string) error {
	length := uint32(len(s))
	if err := WriteUint32(buf, length); err != nil {
		return fmt.Errorf("write string length: %w", err)
	}
	if _, err := buf.WriteString(s); err != nil {
		return fmt.Errorf("write string data: %w", err)
	}
	return WritePadding(buf, length)
}

// WritePadding writes the zero bytes that align dataLen bytes of data to
// the next 4-byte boundary.
func WritePadding(buf *bytes.Buffer, dataLen uint32) error {
	var zeros [Unit]byte
	if pad := Padding(dataLen); pad > 0 {
		if _, err := buf.Write(zeros[:pad]); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}
	return nil
}
