// Package timer provides the periodic callback primitive that drives
// retransmission.
package timer

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidPeriod is returned for non-positive periods.
var ErrInvalidPeriod = errors.New("timer: period must be positive")

// Handle identifies a running periodic timer.
type Handle interface {
	// Cancel stops future invocations. It does not wait for an invocation
	// already in progress, so it is safe to call from within the callback.
	Cancel()
}

// Scheduler creates periodic timers.
type Scheduler interface {
	Every(period time.Duration, fn func()) (Handle, error)
}

// Ticker is a Scheduler backed by time.Ticker, one goroutine per handle.
type Ticker struct{}

// NewTicker returns a wall-clock scheduler.
func NewTicker() Ticker { return Ticker{} }

// Every invokes fn every period until the handle is cancelled. Invocations
// never overlap: a slow fn delays the next one.
func (Ticker) Every(period time.Duration, fn func()) (Handle, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}

	h := &tickerHandle{
		ticker: time.NewTicker(period),
		stopC:  make(chan struct{}),
	}
	go h.run(fn)
	return h, nil
}

type tickerHandle struct {
	ticker *time.Ticker
	stopC  chan struct{}
	once   sync.Once
}

func (h *tickerHandle) run(fn func()) {
	for {
		select {
		case <-h.stopC:
			return
		case <-h.ticker.C:
			// Prefer stopping over a tick that raced with Cancel
			select {
			case <-h.stopC:
				return
			default:
			}
			fn()
		}
	}
}

func (h *tickerHandle) Cancel() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.stopC)
	})
}
