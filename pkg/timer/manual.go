package timer

import (
	"sync"
	"time"
)

// Manual is a Scheduler whose timers only fire when Fire is called. Tests
// use it to step the retransmission state machine one tick at a time.
type Manual struct {
	mu     sync.Mutex
	timers []*manualHandle
}

// NewManual returns a scheduler with no timers.
func NewManual() *Manual {
	return &Manual{}
}

type manualHandle struct {
	m         *Manual
	period    time.Duration
	fn        func()
	cancelled bool
}

// Every registers fn. period is recorded but otherwise ignored.
func (m *Manual) Every(period time.Duration, fn func()) (Handle, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}

	h := &manualHandle{m: m, period: period, fn: fn}
	m.mu.Lock()
	m.timers = append(m.timers, h)
	m.mu.Unlock()
	return h, nil
}

func (h *manualHandle) Cancel() {
	h.m.mu.Lock()
	h.cancelled = true
	h.m.mu.Unlock()
}

// Fire invokes every active timer n times, in registration order.
func (m *Manual) Fire(n int) {
	for i := 0; i < n; i++ {
		for _, h := range m.active() {
			h.fn()
		}
	}
}

// Active returns the number of timers not yet cancelled.
func (m *Manual) Active() int {
	return len(m.active())
}

// Periods returns the period of every active timer.
func (m *Manual) Periods() []time.Duration {
	var out []time.Duration
	for _, h := range m.active() {
		out = append(out, h.period)
	}
	return out
}

func (m *Manual) active() []*manualHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*manualHandle
	for _, h := range m.timers {
		if !h.cancelled {
			out = append(out, h)
		}
	}
	return out
}
