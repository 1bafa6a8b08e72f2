// Package memory provides an in-process transport.Transport that records
// every datagram sent through it. It is used to drive the RPC client
// deterministically in tests.
package memory

import (
	"errors"
	"net"
	"net/netip"
	"sync"

	"github.com/marmos91/sunrpc/pkg/transport"
)

// ErrInjected is returned by Send while failures are injected.
var ErrInjected = errors.New("memory transport: injected send failure")

// Datagram is one recorded send.
type Datagram struct {
	Data []byte
	To   netip.AddrPort
}

// Responder computes a reply for a sent datagram. Returning nil sends
// nothing back.
type Responder func(d Datagram) []byte

// Transport is a recording in-memory transport.
type Transport struct {
	mu        sync.Mutex
	handler   transport.ReceiveHandler
	responder Responder
	sent      []Datagram
	failures  int
	closed    bool
}

var _ transport.Transport = (*Transport)(nil)

// New returns an empty transport.
func New() *Transport {
	return &Transport{}
}

// Send records data. It fails with ErrInjected while injected failures
// remain, and with net.ErrClosed after Close.
func (t *Transport) Send(data []byte, to netip.AddrPort) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return net.ErrClosed
	}
	if t.failures != 0 {
		if t.failures > 0 {
			t.failures--
		}
		t.mu.Unlock()
		return ErrInjected
	}

	d := Datagram{Data: append([]byte(nil), data...), To: to}
	t.sent = append(t.sent, d)
	respond := t.responder
	t.mu.Unlock()

	if respond != nil {
		if reply := respond(d); reply != nil {
			// Async so the sender may hold its own locks across Send.
			go t.Deliver(reply, to)
		}
	}
	return nil
}

// SetReceiveHandler registers the inbound handler.
func (t *Transport) SetReceiveHandler(h transport.ReceiveHandler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Close marks the transport closed.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// FailNextSends makes the next n sends fail. A negative n fails every send
// until FailNextSends(0) is called.
func (t *Transport) FailNextSends(n int) {
	t.mu.Lock()
	t.failures = n
	t.mu.Unlock()
}

// Respond installs a responder that answers sends asynchronously.
func (t *Transport) Respond(r Responder) {
	t.mu.Lock()
	t.responder = r
	t.mu.Unlock()
}

// Deliver hands data to the registered receive handler as if it arrived
// from the given address.
func (t *Transport) Deliver(data []byte, from netip.AddrPort) {
	t.mu.Lock()
	h := t.handler
	closed := t.closed
	t.mu.Unlock()

	if h == nil || closed {
		return
	}
	h(data, from)
}

// Sent returns a copy of every recorded datagram in send order.
func (t *Transport) Sent() []Datagram {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Datagram(nil), t.sent...)
}

// SentCount returns the number of recorded datagrams.
func (t *Transport) SentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}
