// Package portmap implements the port mapper protocol, version 2 (RFC 1833),
// on top of the reliable RPC client.
//
// Client asks a remote portmapper which port a program listens on. Registry
// and Server provide the other side: an in-process portmapper that answers
// calls arriving on any transport.Transport.
package portmap

import (
	"fmt"

	"github.com/marmos91/sunrpc/pkg/rpc"
)

// Program and version served by every portmapper.
const (
	Program = rpc.ProgramPortmap
	Version = 2

	// DefaultPort is the well-known portmapper port.
	DefaultPort = 111
)

// Procedures of portmap version 2. CALLIT (5) is not supported.
const (
	ProcNull    = 0
	ProcSet     = 1
	ProcUnset   = 2
	ProcGetport = 3
	ProcDump    = 4
)

// Transport protocol numbers used in mappings.
const (
	ProtoTCP = 6
	ProtoUDP = 17
)

// Mapping associates (program, version, protocol) with a port.
// Field order matches the XDR struct on the wire.
type Mapping struct {
	Program  uint32 `json:"program" yaml:"program"`
	Version  uint32 `json:"version" yaml:"version"`
	Protocol uint32 `json:"protocol" yaml:"protocol"`
	Port     uint32 `json:"port" yaml:"port"`
}

// ProtoName returns "tcp", "udp" or "proto-N".
func (m Mapping) ProtoName() string {
	return ProtoName(m.Protocol)
}

func (m Mapping) String() string {
	return fmt.Sprintf("%d/%d/%s -> %d", m.Program, m.Version, m.ProtoName(), m.Port)
}

// ProtoName names a protocol number.
func ProtoName(proto uint32) string {
	switch proto {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	default:
		return fmt.Sprintf("proto-%d", proto)
	}
}

// ParseProto accepts "tcp" or "udp".
func ParseProto(name string) (uint32, error) {
	switch name {
	case "tcp":
		return ProtoTCP, nil
	case "udp":
		return ProtoUDP, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q (want tcp or udp)", name)
	}
}

// decodeDump reads the optional-data list returned by DUMP: a boolean
// "more" flag before each mapping, false after the last one.
func decodeDump(cur *rpc.Cursor) ([]Mapping, error) {
	var out []Mapping
	for {
		more, err := cur.Bool()
		if err != nil {
			return nil, fmt.Errorf("decode dump list: %w", err)
		}
		if !more {
			return out, nil
		}

		var m Mapping
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode mapping %d: %w", len(out), err)
		}
		out = append(out, m)
	}
}
