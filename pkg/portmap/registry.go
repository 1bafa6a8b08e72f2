package portmap

import (
	"cmp"
	"slices"
	"sync"
)

type mappingKey struct {
	program, version, protocol uint32
}

// Registry is the table an in-process portmapper serves.
type Registry struct {
	mu       sync.RWMutex
	mappings map[mappingKey]uint32
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mappings: make(map[mappingKey]uint32)}
}

// Set registers m. It fails if the key is already bound to another port.
func (r *Registry) Set(m Mapping) bool {
	k := mappingKey{m.Program, m.Version, m.Protocol}

	r.mu.Lock()
	defer r.mu.Unlock()

	if port, ok := r.mappings[k]; ok && port != m.Port {
		return false
	}
	r.mappings[k] = m.Port
	return true
}

// Unset removes all mappings of program and version. It reports whether
// anything was removed.
func (r *Registry) Unset(program, version uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for k := range r.mappings {
		if k.program == program && k.version == version {
			delete(r.mappings, k)
			removed = true
		}
	}
	return removed
}

// Getport returns the registered port or 0.
func (r *Registry) Getport(program, version, protocol uint32) uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mappings[mappingKey{program, version, protocol}]
}

// Dump returns every mapping ordered by program, version and protocol.
func (r *Registry) Dump() []Mapping {
	r.mu.RLock()
	out := make([]Mapping, 0, len(r.mappings))
	for k, port := range r.mappings {
		out = append(out, Mapping{Program: k.program, Version: k.version, Protocol: k.protocol, Port: port})
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Mapping) int {
		return cmp.Or(
			cmp.Compare(a.Program, b.Program),
			cmp.Compare(a.Version, b.Version),
			cmp.Compare(a.Protocol, b.Protocol),
		)
	})
	return out
}

// Len returns the number of mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mappings)
}
