// Package bufpool provides pooled byte slices for RPC datagrams.
//
// Every outstanding call owns one encoded request buffer until its reply
// arrives, it times out, or the client is torn down. Pooling those buffers
// keeps a client issuing many small calls from churning the allocator.
//
// Three size classes cover the datagrams the client deals with:
//   - Small (1500 bytes): one Ethernet MTU, enough for NULL and portmap calls
//   - Medium (8KiB): the default maximum call datagram
//   - Large (64KiB): the largest UDP payload, used by the receive loop
//
// Requests above the large class are allocated directly and never pooled.
//
// All operations are safe for concurrent use.
//
// # Usage
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import "sync"

const (
	DefaultSmallSize  = 1500
	DefaultMediumSize = 8 << 10
	DefaultLargeSize  = 64 << 10
)

// Pool is a set of sync.Pools, one per size class.
type Pool struct {
	classes []sizeClass
}

type sizeClass struct {
	size int
	pool *sync.Pool
}

// Config overrides the size classes. Zero fields take the defaults.
type Config struct {
	SmallSize  int
	MediumSize int
	LargeSize  int
}

// NewPool creates a pool. A nil config uses the default size classes.
func NewPool(cfg *Config) *Pool {
	sizes := [3]int{DefaultSmallSize, DefaultMediumSize, DefaultLargeSize}
	if cfg != nil {
		for i, v := range [3]int{cfg.SmallSize, cfg.MediumSize, cfg.LargeSize} {
			if v > 0 {
				sizes[i] = v
			}
		}
	}

	p := &Pool{}
	for _, size := range sizes {
		size := size
		p.classes = append(p.classes, sizeClass{
			size: size,
			pool: &sync.Pool{New: func() any {
				buf := make([]byte, size)
				return &buf
			}},
		})
	}
	return p
}

// Get returns a slice of length size backed by a pooled buffer of the
// smallest class that fits. The caller must Put it back exactly once.
func (p *Pool) Get(size int) []byte {
	for _, c := range p.classes {
		if size <= c.size {
			buf := *(c.pool.Get().(*[]byte))
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns buf to the class matching its capacity. Buffers that did not
// come from a class (oversized or foreign) are left to the GC.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for _, c := range p.classes {
		if cap(buf) == c.size {
			full := buf[:cap(buf)]
			c.pool.Put(&full)
			return
		}
	}
}

// =============================================================================
// Global Pool
// =============================================================================

var globalPool = NewPool(nil)

// Get returns a buffer from the package-level pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the package-level pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
