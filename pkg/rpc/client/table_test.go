package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallTable(t *testing.T) {
	t.Run("InsertAndRemove", func(t *testing.T) {
		tbl := newCallTable(4)
		for _, xid := range []uint32{1, 5, 9, 2} {
			tbl.insert(&pendingCall{xid: xid})
		}
		assert.Equal(t, 4, tbl.len())
		assert.True(t, tbl.contains(5))
		assert.False(t, tbl.contains(13))

		call, ok := tbl.removeExact(5)
		require.True(t, ok)
		assert.Equal(t, uint32(5), call.xid)
		assert.False(t, tbl.contains(5))
		assert.Equal(t, 3, tbl.len())

		_, ok = tbl.removeExact(5)
		assert.False(t, ok)
	})

	t.Run("BucketIsXIDModSize", func(t *testing.T) {
		tbl := newCallTable(4)
		tbl.insert(&pendingCall{xid: 6})
		assert.Len(t, tbl.buckets[2], 1)
	})

	t.Run("ForEachVisitsNewestFirstWithinBucket", func(t *testing.T) {
		tbl := newCallTable(4)
		for _, xid := range []uint32{1, 5, 9} {
			tbl.insert(&pendingCall{xid: xid})
		}

		var order []uint32
		tbl.forEach(func(c *pendingCall) { order = append(order, c.xid) })
		assert.Equal(t, []uint32{9, 5, 1}, order)
	})

	t.Run("ForEachToleratesRemovingCurrent", func(t *testing.T) {
		tbl := newCallTable(2)
		for xid := uint32(0); xid < 10; xid++ {
			tbl.insert(&pendingCall{xid: xid})
		}

		visited := 0
		tbl.forEach(func(c *pendingCall) {
			visited++
			if c.xid%3 == 0 {
				_, ok := tbl.removeExact(c.xid)
				require.True(t, ok)
			}
		})
		assert.Equal(t, 10, visited)
		assert.Equal(t, 6, tbl.len())
		for _, xid := range []uint32{0, 3, 6, 9} {
			assert.False(t, tbl.contains(xid))
		}
	})

	t.Run("Drain", func(t *testing.T) {
		tbl := newCallTable(3)
		for xid := uint32(0); xid < 7; xid++ {
			tbl.insert(&pendingCall{xid: xid})
		}
		calls := tbl.drain()
		assert.Len(t, calls, 7)
		assert.Equal(t, 0, tbl.len())
		for xid := uint32(0); xid < 7; xid++ {
			assert.False(t, tbl.contains(xid))
		}
	})

	t.Run("DefaultBucketCount", func(t *testing.T) {
		assert.Len(t, newCallTable(0).buckets, DefaultBuckets)
	})
}
