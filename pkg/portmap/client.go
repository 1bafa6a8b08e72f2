package portmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/sunrpc/pkg/rpc"
	"github.com/marmos91/sunrpc/pkg/rpc/client"
)

// ErrNotRegistered is returned by GetPort when the portmapper answers 0.
var ErrNotRegistered = errors.New("portmap: program not registered")

// Client issues portmap calls through an RPC client.
type Client struct {
	rpc  *client.Client
	port uint16
}

// NewClient talks to the portmapper on port; 0 means DefaultPort.
func NewClient(c *client.Client, port uint16) *Client {
	if port == 0 {
		port = DefaultPort
	}
	return &Client{rpc: c, port: port}
}

// Null pings the portmapper.
func (p *Client) Null(ctx context.Context) error {
	return p.rpc.Ping(ctx, p.port, Program, Version)
}

// GetPort looks up the port of (program, version, protocol).
func (p *Client) GetPort(ctx context.Context, program, version, protocol uint32) (uint16, error) {
	var port uint32
	args := Mapping{Program: program, Version: version, Protocol: protocol}

	err := p.rpc.Call(ctx, p.port, Program, Version, ProcGetport, rpc.XDRArgs(&args),
		func(cur *rpc.Cursor) error {
			var err error
			port, err = cur.Uint32()
			return err
		})
	if err != nil {
		return 0, fmt.Errorf("portmap GETPORT %d/%d/%s: %w", program, version, ProtoName(protocol), err)
	}

	if port == 0 {
		return 0, fmt.Errorf("%w: %d/%d/%s", ErrNotRegistered, program, version, ProtoName(protocol))
	}
	if port > 0xFFFF {
		return 0, fmt.Errorf("portmap GETPORT: %w: port %d out of range", rpc.ErrMalformed, port)
	}
	return uint16(port), nil
}

// Set registers m. The portmapper answers false when a different port is
// already registered for the same program, version and protocol.
func (p *Client) Set(ctx context.Context, m Mapping) (bool, error) {
	return p.boolCall(ctx, ProcSet, m)
}

// Unset removes every mapping for m.Program and m.Version, whatever the
// protocol.
func (p *Client) Unset(ctx context.Context, m Mapping) (bool, error) {
	return p.boolCall(ctx, ProcUnset, m)
}

func (p *Client) boolCall(ctx context.Context, proc uint32, m Mapping) (bool, error) {
	var ok bool
	err := p.rpc.Call(ctx, p.port, Program, Version, proc, rpc.XDRArgs(&m),
		func(cur *rpc.Cursor) error {
			var err error
			ok, err = cur.Bool()
			return err
		})
	return ok, err
}

// Dump lists every mapping the portmapper knows.
func (p *Client) Dump(ctx context.Context) ([]Mapping, error) {
	var out []Mapping
	err := p.rpc.Call(ctx, p.port, Program, Version, ProcDump, rpc.NoArgs,
		func(cur *rpc.Cursor) error {
			var err error
			out, err = decodeDump(cur)
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("portmap DUMP: %w", err)
	}
	return out, nil
}
