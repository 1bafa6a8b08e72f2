// Package xdr provides the small set of XDR (External Data Representation)
// primitives the RPC envelope needs, per RFC 4506.
//
// Key characteristics of XDR:
//   - Big-endian byte order for all multi-byte integers
//   - 4-byte alignment for all data types
//   - Variable-length data is preceded by a 4-byte length
//   - Strings and opaque data are padded to 4-byte boundaries
//
// Struct-level marshalling of procedure arguments and results is done with
// github.com/rasky/go-xdr; this package only covers the hand-rolled pieces
// where the exact byte layout matters.
//
// Reference: RFC 4506 - XDR: External Data Representation Standard
// https://tools.ietf.org/html/rfc4506
package xdr

// Unit is the XDR alignment unit in bytes.
const Unit = 4

// RoundUp returns n rounded up to the next multiple of the XDR unit.
//
//	RoundUp(0) = 0, RoundUp(3) = 4, RoundUp(8) = 8, RoundUp(10) = 12
func RoundUp(n uint32) uint32 {
	return (n + Unit - 1) &^ (Unit - 1)
}

// Padding returns the number of zero bytes that follow n bytes of data.
func Padding(n uint32) uint32 {
	return (Unit - (n % Unit)) % Unit
}
