// Package transport defines the datagram endpoint the RPC client sends
// calls through and receives replies from.
//
// Implementations must make Send fail fast rather than block, and must
// deliver inbound datagrams to the registered ReceiveHandler one at a time.
package transport

import "net/netip"

// ReceiveHandler is invoked for every inbound datagram. data is only valid
// for the duration of the call.
type ReceiveHandler func(data []byte, from netip.AddrPort)

// Transport is an unreliable datagram endpoint.
type Transport interface {
	// Send transmits one datagram to the given address and port.
	Send(data []byte, to netip.AddrPort) error

	// SetReceiveHandler registers the function inbound datagrams are
	// delivered to. Datagrams arriving before a handler is set are dropped.
	SetReceiveHandler(h ReceiveHandler)

	// Close releases the endpoint. Further sends fail.
	Close() error
}
