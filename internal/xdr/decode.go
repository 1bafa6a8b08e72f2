package xdr

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ============================================================================
// Decoding - Wire Format → Go Types
// ============================================================================

// MaxOpaqueLength bounds a single decoded opaque field. A datagram can never
// carry more than this, so larger lengths only come from corrupt input.
const MaxOpaqueLength = 64 * 1024

// DecodeUint32 decodes a big-endian 32-bit unsigned integer.
func DecodeUint32(reader io.Reader) (uint32, error) {
	var word [4]byte
	if _, err := io.ReadFull(reader, word[:]); err != nil {
		return 0, fmt.Errorf("read uint32: %w", err)
	}
	return binary.BigEndian.Uint32(word[:]), nil
}

// DecodeUint64 decodes a big-endian 64-bit unsigned integer.
func DecodeUint64(reader io.Reader) (uint64, error) {
	var word [8]byte
	if _, err := io.ReadFull(reader, word[:]); err != nil {
		return 0, fmt.Errorf("read uint64: %w", err)
	}
	return binary.BigEndian.Uint64(word[:]), nil
}

// DecodeBool decodes an XDR boolean. Any non-zero value is true.
func DecodeBool(reader io.Reader) (bool, error) {
	v, err := DecodeUint32(reader)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// DecodeOpaque decodes variable-length opaque data and consumes its padding.
//
// Format: [length:uint32][data:length bytes][padding:0-3 bytes]
func DecodeOpaque(reader io.Reader) ([]byte, error) {
	length, err := DecodeUint32(reader)
	if err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	if length > MaxOpaqueLength {
		return nil, fmt.Errorf("opaque length %d exceeds maximum %d", length, MaxOpaqueLength)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	// Padding is at most 3 bytes, a stack buffer avoids io.CopyN
	if pad := Padding(length); pad > 0 {
		var padBuf [Unit - 1]byte
		if _, err := io.ReadFull(reader, padBuf[:pad]); err != nil {
			return nil, fmt.Errorf("skip padding: %w", err)
		}
	}

	return data, nil
}

// DecodeString decodes an XDR string.
func DecodeString(reader io.Reader) (string, error) {
	data, err := DecodeOpaque(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
