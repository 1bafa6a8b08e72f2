package client

// callTable indexes pending calls by xid. Each bucket is a slice kept in
// insertion order; walking it backwards yields newest-first order, the same
// order a prepend-to-head list would give.
type callTable struct {
	buckets [][]*pendingCall
	count   int
}

func newCallTable(buckets int) *callTable {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	return &callTable{buckets: make([][]*pendingCall, buckets)}
}

func (t *callTable) index(xid uint32) int {
	return int(xid % uint32(len(t.buckets)))
}

// insert adds call. The caller guarantees no entry with the same xid exists.
func (t *callTable) insert(call *pendingCall) {
	i := t.index(call.xid)
	t.buckets[i] = append(t.buckets[i], call)
	t.count++
}

func (t *callTable) contains(xid uint32) bool {
	for _, c := range t.buckets[t.index(xid)] {
		if c.xid == xid {
			return true
		}
	}
	return false
}

// removeExact unlinks and returns the entry for xid.
func (t *callTable) removeExact(xid uint32) (*pendingCall, bool) {
	i := t.index(xid)
	bucket := t.buckets[i]
	for j, c := range bucket {
		if c.xid != xid {
			continue
		}
		copy(bucket[j:], bucket[j+1:])
		bucket[len(bucket)-1] = nil
		t.buckets[i] = bucket[:len(bucket)-1]
		t.count--
		return c, true
	}
	return nil, false
}

// forEach visits every entry bucket by bucket, newest first within a
// bucket. fn may remove the entry it is visiting.
func (t *callTable) forEach(fn func(*pendingCall)) {
	for i := range t.buckets {
		for j := len(t.buckets[i]) - 1; j >= 0; j-- {
			// A removal by fn shifts only entries already visited
			if j >= len(t.buckets[i]) {
				continue
			}
			fn(t.buckets[i][j])
		}
	}
}

// drain empties the table and returns what it held.
func (t *callTable) drain() []*pendingCall {
	out := make([]*pendingCall, 0, t.count)
	for i, bucket := range t.buckets {
		out = append(out, bucket...)
		t.buckets[i] = nil
	}
	t.count = 0
	return out
}

func (t *callTable) len() int {
	return t.count
}
