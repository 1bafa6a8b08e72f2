// Package udp implements transport.Transport on top of a UDP socket.
package udp

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/sunrpc/internal/logger"
	"github.com/marmos91/sunrpc/pkg/bufpool"
	"github.com/marmos91/sunrpc/pkg/transport"
)

// MaxDatagramSize is the largest UDP payload the read loop accepts.
const MaxDatagramSize = 64 * 1024

// Config configures the local endpoint.
type Config struct {
	// LocalAddress is the host:port to bind. Empty binds an ephemeral port
	// on all interfaces.
	LocalAddress string

	// WriteTimeout bounds a single send. Zero means no deadline.
	WriteTimeout time.Duration
}

// Transport is a UDP endpoint with a background read loop.
type Transport struct {
	conn         *net.UDPConn
	writeTimeout time.Duration
	handler      atomic.Pointer[transport.ReceiveHandler]

	closeOnce sync.Once
	closeC    chan struct{}
	doneC     chan struct{}
}

var _ transport.Transport = (*Transport)(nil)

// Listen binds the endpoint and starts the read loop.
func Listen(cfg Config) (*Transport, error) {
	var laddr *net.UDPAddr
	if cfg.LocalAddress != "" {
		addr, err := net.ResolveUDPAddr("udp", cfg.LocalAddress)
		if err != nil {
			return nil, fmt.Errorf("resolve local address %q: %w", cfg.LocalAddress, err)
		}
		laddr = addr
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}

	t := &Transport{
		conn:         conn,
		writeTimeout: cfg.WriteTimeout,
		closeC:       make(chan struct{}),
		doneC:        make(chan struct{}),
	}

	logger.Debug("UDP transport listening", logger.KeyLocalAddr, conn.LocalAddr().String())
	go t.readLoop()

	return t, nil
}

// LocalAddr returns the bound address.
func (t *Transport) LocalAddr() netip.AddrPort {
	return t.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// Send writes one datagram.
func (t *Transport) Send(data []byte, to netip.AddrPort) error {
	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	n, err := t.conn.WriteToUDPAddrPort(data, to)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(data))
	}
	return nil
}

// SetReceiveHandler registers the inbound datagram handler.
func (t *Transport) SetReceiveHandler(h transport.ReceiveHandler) {
	t.handler.Store(&h)
}

// Close stops the read loop and closes the socket. It is safe to call more
// than once.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closeC)
		err = t.conn.Close()
		<-t.doneC
	})
	return err
}

func (t *Transport) readLoop() {
	defer close(t.doneC)

	buf := bufpool.Get(MaxDatagramSize)
	defer bufpool.Put(buf)

	for {
		n, from, err := t.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			select {
			case <-t.closeC:
			default:
				if !errors.Is(err, net.ErrClosed) {
					logger.Error("UDP read failed", logger.KeyError, err)
				}
			}
			return
		}

		h := t.handler.Load()
		if h == nil || *h == nil {
			continue
		}
		(*h)(buf[:n], from)
	}
}
