package client

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sunrpc/pkg/metrics"
	"github.com/marmos91/sunrpc/pkg/rpc"
	"github.com/marmos91/sunrpc/pkg/timer"
	"github.com/marmos91/sunrpc/pkg/transport/memory"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

var testServer = netip.MustParseAddr("192.0.2.10")

type harness struct {
	client *Client
	tr     *memory.Transport
	timers *timer.Manual
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()

	cfg := Config{Server: testServer}
	if mutate != nil {
		mutate(&cfg)
	}

	tr := memory.New()
	timers := timer.NewManual()
	c, err := New(cfg, tr, timers)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return &harness{client: c, tr: tr, timers: timers}
}

// recorder collects completions delivered to a handler.
type recorder struct {
	mu    sync.Mutex
	comps []Completion
	vals  []uint32
}

func (r *recorder) handler(comp *Completion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comps = append(r.comps, *comp)
	if comp.Err == nil && comp.Reply.Accepted && comp.Results.Len() >= 4 {
		v, _ := comp.Results.Uint32()
		r.vals = append(r.vals, v)
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.comps)
}

func xidOf(d memory.Datagram) uint32 {
	return binary.BigEndian.Uint32(d.Data[0:4])
}

func words(vals ...uint32) []byte {
	buf := new(bytes.Buffer)
	for _, v := range vals {
		_ = binary.Write(buf, binary.BigEndian, v)
	}
	return buf.Bytes()
}

func (h *harness) issue(t *testing.T, port uint16, handler Handler) uint32 {
	t.Helper()
	xid, err := h.client.IssueCall(context.Background(), port, rpc.ProgramPortmap, 2, 0, nil, handler)
	require.NoError(t, err)
	return xid
}

func (h *harness) reply(xid uint32, results ...uint32) {
	h.tr.Deliver(rpc.EncodeAcceptedReply(xid, rpc.RPCSuccess, words(results...)),
		netip.AddrPortFrom(testServer, 111))
}

// ============================================================================
// Construction
// ============================================================================

func TestNew(t *testing.T) {
	t.Run("AppliesDefaultsAndRegistersTimer", func(t *testing.T) {
		h := newHarness(t, nil)

		cfg := h.client.Config()
		assert.Equal(t, DefaultTickPeriod, cfg.TickPeriod)
		assert.Equal(t, DefaultRetransmitAfter, cfg.RetransmitAfter)
		assert.Equal(t, DefaultMaxRetransmits, cfg.MaxRetransmits)
		assert.Equal(t, rpc.DefaultMachineName, cfg.Credential.MachineName)
		assert.Equal(t, []time.Duration{DefaultTickPeriod}, h.timers.Periods())
		assert.NotEmpty(t, h.client.ID())
	})

	t.Run("RequiresServer", func(t *testing.T) {
		_, err := New(Config{}, memory.New(), timer.NewManual())
		assert.Error(t, err)
	})

	t.Run("RejectsDatagramTooSmallForHeader", func(t *testing.T) {
		_, err := New(Config{Server: testServer, MaxDatagramSize: 16}, memory.New(), timer.NewManual())
		assert.Error(t, err)
	})

	t.Run("WorstCaseLatency", func(t *testing.T) {
		cfg := Config{Server: testServer}
		cfg.ApplyDefaults()
		assert.Equal(t, 36600*time.Millisecond, cfg.WorstCaseLatency())
	})
}

// ============================================================================
// Issuing
// ============================================================================

func TestIssueCall(t *testing.T) {
	t.Run("TransactionIDsAreUnique", func(t *testing.T) {
		h := newHarness(t, nil)

		seen := make(map[uint32]bool)
		for i := 0; i < 200; i++ {
			xid := h.issue(t, 111, nil)
			assert.False(t, seen[xid], "xid 0x%08x reused", xid)
			seen[xid] = true
		}
		assert.Equal(t, 200, h.client.Pending())
		assert.Equal(t, 200, h.tr.SentCount())
	})

	t.Run("SendsEncodedEnvelopeAndArgs", func(t *testing.T) {
		h := newHarness(t, nil)

		xid, err := h.client.IssueCall(context.Background(), 111, rpc.ProgramPortmap, 2, 3,
			rpc.Uint32Args(100003, 3, 17, 0), nil)
		require.NoError(t, err)

		sent := h.tr.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, xid, xidOf(sent[0]))
		assert.Equal(t, netip.AddrPortFrom(testServer, 111), sent[0].To)

		header := rpc.CallHeaderLen(rpc.Credential{MachineName: rpc.DefaultMachineName})
		require.Len(t, sent[0].Data, header+16)
		assert.Equal(t, words(100003, 3, 17, 0), sent[0].Data[header:])
	})

	t.Run("RetargetsDestination", func(t *testing.T) {
		h := newHarness(t, nil)

		h.issue(t, 111, nil)
		assert.Equal(t, netip.AddrPortFrom(testServer, 111), h.client.Destination())

		h.issue(t, 2049, nil)
		assert.Equal(t, netip.AddrPortFrom(testServer, 2049), h.client.Destination())

		sent := h.tr.Sent()
		assert.Equal(t, uint16(111), sent[0].To.Port())
		assert.Equal(t, uint16(2049), sent[1].To.Port())
	})

	t.Run("SendFailureRollsBack", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		h.tr.FailNextSends(1)
		_, err := h.client.IssueCall(context.Background(), 111, 1, 1, 0, nil, rec.handler)
		require.Error(t, err)
		assert.ErrorIs(t, err, rpc.ErrTransportSend)
		assert.ErrorIs(t, err, memory.ErrInjected)
		assert.Equal(t, 0, h.client.Pending())

		// Nothing is scheduled for a call that never left
		h.timers.Fire(500)
		assert.Equal(t, 0, rec.count())
		assert.Equal(t, 0, h.tr.SentCount())
	})

	t.Run("ArgumentsOverflowDatagram", func(t *testing.T) {
		h := newHarness(t, func(c *Config) { c.MaxDatagramSize = 128 })

		_, err := h.client.IssueCall(context.Background(), 111, 1, 1, 1,
			rpc.XDRArgs(&struct{ Blob []byte }{Blob: make([]byte, 100)}), nil)
		assert.ErrorIs(t, err, rpc.ErrEncodingOverflow)
		assert.Equal(t, 0, h.client.Pending())
		assert.Equal(t, 0, h.tr.SentCount())
	})

	t.Run("ArgumentEncoderError", func(t *testing.T) {
		h := newHarness(t, nil)

		boom := errors.New("boom")
		_, err := h.client.IssueCall(context.Background(), 111, 1, 1, 1,
			func(*bytes.Buffer) error { return boom }, nil)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, h.client.Pending())
	})

	t.Run("CancelledContext", func(t *testing.T) {
		h := newHarness(t, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := h.client.IssueCall(ctx, 111, 1, 1, 0, nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("SkipsTransactionIDsStillPending", func(t *testing.T) {
		h := newHarness(t, nil)

		first := h.issue(t, 111, nil)

		// Rewind the counter as if it had wrapped around
		h.client.mu.Lock()
		h.client.nextXID = first
		h.client.mu.Unlock()

		second := h.issue(t, 111, nil)
		assert.Equal(t, first+1, second)
		assert.Equal(t, 2, h.client.Pending())
	})
}

// ============================================================================
// Receive path
// ============================================================================

func TestReplies(t *testing.T) {
	t.Run("ReplyBeforeThresholdCompletesOnce", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		xid := h.issue(t, 111, rec.handler)
		h.timers.Fire(DefaultRetransmitAfter - 1)
		h.reply(xid, 2049)

		require.Equal(t, 1, rec.count())
		comp := rec.comps[0]
		assert.Equal(t, xid, comp.XID)
		assert.NoError(t, comp.Err)
		assert.True(t, comp.Reply.Accepted)
		assert.Equal(t, uint32(rpc.RPCSuccess), comp.Reply.AcceptStat)
		assert.NoError(t, comp.Result())
		assert.Equal(t, 0, comp.Retries)
		assert.Equal(t, []uint32{2049}, rec.vals)

		assert.Equal(t, 1, h.tr.SentCount(), "no retransmission")
		assert.Equal(t, 0, h.client.Pending())

		// The timer no longer sees the call
		h.timers.Fire(1000)
		assert.Equal(t, 1, rec.count())
		assert.Equal(t, 1, h.tr.SentCount())
	})

	t.Run("DuplicateReplyIsDropped", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		xid := h.issue(t, 111, rec.handler)
		h.reply(xid)
		h.reply(xid)

		assert.Equal(t, 1, rec.count())
		assert.Equal(t, uint64(1), h.client.Stats().DroppedUnknown)
	})

	t.Run("OutOfOrderReplies", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		a := h.issue(t, 111, rec.handler)
		b := h.issue(t, 111, rec.handler)
		h.reply(b, 2)
		h.reply(a, 1)

		require.Equal(t, 2, rec.count())
		assert.Equal(t, b, rec.comps[0].XID)
		assert.Equal(t, a, rec.comps[1].XID)
		assert.Equal(t, []uint32{2, 1}, rec.vals)
	})

	t.Run("MalformedDatagramsAreDropped", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		xid := h.issue(t, 111, rec.handler)
		from := netip.AddrPortFrom(testServer, 111)
		h.tr.Deliver([]byte{1, 2, 3}, from)
		h.tr.Deliver(words(xid, rpc.RPCCall, 0), from)
		h.tr.Deliver(words(xid, rpc.RPCReply, rpc.RPCMsgAccepted, 0, 1000), from)

		assert.Equal(t, 0, rec.count())
		assert.Equal(t, 1, h.client.Pending())
		assert.Equal(t, uint64(3), h.client.Stats().DroppedMalformed)

		h.reply(xid)
		assert.Equal(t, 1, rec.count())
	})

	t.Run("DeniedReply", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		xid := h.issue(t, 111, rec.handler)
		h.tr.Deliver(rpc.EncodeDeniedReply(xid, rpc.RPCAuthError, 1), netip.AddrPortFrom(testServer, 111))

		require.Equal(t, 1, rec.count())
		comp := rec.comps[0]
		assert.False(t, comp.Reply.Accepted)
		assert.Equal(t, rpc.AcceptStatNone, comp.Reply.AcceptStat)
	})

	t.Run("ResultFoldsReplyStatus", func(t *testing.T) {
		h := newHarness(t, nil)

		var denied, failed error
		xid := h.issue(t, 111, func(c *Completion) { denied = c.Result() })
		h.tr.Deliver(rpc.EncodeDeniedReply(xid, rpc.RPCAuthError, 1), netip.AddrPortFrom(testServer, 111))

		xid = h.issue(t, 111, func(c *Completion) { failed = c.Result() })
		h.tr.Deliver(rpc.EncodeAcceptedReply(xid, rpc.RPCProgUnavail, nil), netip.AddrPortFrom(testServer, 111))

		var re *rpc.ReplyError
		require.ErrorAs(t, denied, &re)
		assert.False(t, re.Accepted)
		assert.Equal(t, uint32(rpc.RPCAuthError), re.RejectStat)

		require.ErrorAs(t, failed, &re)
		assert.True(t, re.Accepted)
		assert.Equal(t, uint32(rpc.RPCProgUnavail), re.AcceptStat)
	})

	t.Run("HandlerMayIssueCalls", func(t *testing.T) {
		h := newHarness(t, nil)

		var chained uint32
		xid := h.issue(t, 111, func(*Completion) {
			var err error
			chained, err = h.client.IssueCall(context.Background(), 111, 1, 1, 0, nil, nil)
			assert.NoError(t, err)
		})
		h.reply(xid)

		assert.NotZero(t, h.tr.SentCount())
		assert.Equal(t, 1, h.client.Pending())
		assert.NotEqual(t, xid, chained)
	})
}

// ============================================================================
// Retransmission
// ============================================================================

func TestRetransmission(t *testing.T) {
	t.Run("ThresholdThreeMaxTwoScenario", func(t *testing.T) {
		h := newHarness(t, func(c *Config) {
			c.RetransmitAfter = 3
			c.MaxRetransmits = 2
		})
		var rec recorder

		h.issue(t, 111, rec.handler)

		// tick -> transmissions so far
		want := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 2, 6: 3, 7: 3, 8: 3, 9: 3}
		for tick := 1; tick <= 9; tick++ {
			h.timers.Fire(1)
			assert.Equal(t, want[tick], h.tr.SentCount(), "after tick %d", tick)
			if tick < 9 {
				assert.Equal(t, 0, rec.count(), "completed early at tick %d", tick)
			}
		}

		require.Equal(t, 1, rec.count())
		comp := rec.comps[0]
		assert.ErrorIs(t, comp.Err, rpc.ErrTimeout)
		assert.ErrorIs(t, comp.Result(), rpc.ErrTimeout)
		assert.Nil(t, comp.Results)
		assert.Equal(t, 2, comp.Retries)
		assert.Equal(t, 0, h.client.Pending())
		assert.Equal(t, uint64(1), h.client.Stats().Timeouts)

		// Retransmissions are byte-for-byte copies
		sent := h.tr.Sent()
		assert.Equal(t, sent[0].Data, sent[1].Data)
		assert.Equal(t, sent[0].Data, sent[2].Data)

		h.timers.Fire(100)
		assert.Equal(t, 1, rec.count())
		assert.Equal(t, 3, h.tr.SentCount())
	})

	t.Run("DefaultsSendMaxPlusOneTransmissions", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		h.issue(t, 111, rec.handler)
		h.timers.Fire(DefaultRetransmitAfter*(DefaultMaxRetransmits+1) - 1)
		assert.Equal(t, 0, rec.count())

		h.timers.Fire(1)
		assert.Equal(t, 1, rec.count())
		assert.Equal(t, DefaultMaxRetransmits+1, h.tr.SentCount())
	})

	t.Run("TransientSendFailureRetriesNextTick", func(t *testing.T) {
		h := newHarness(t, func(c *Config) {
			c.RetransmitAfter = 3
			c.MaxRetransmits = 2
		})
		var rec recorder

		h.issue(t, 111, rec.handler)
		h.timers.Fire(2)

		h.tr.FailNextSends(1)
		h.timers.Fire(1)
		assert.Equal(t, 1, h.tr.SentCount())
		assert.Equal(t, uint64(1), h.client.Stats().RetransmitFailures)

		h.timers.Fire(1)
		assert.Equal(t, 2, h.tr.SentCount(), "retried on the following tick")

		// Both retries remain: one more retransmission then a timeout
		h.timers.Fire(3)
		assert.Equal(t, 3, h.tr.SentCount())
		h.timers.Fire(2)
		assert.Equal(t, 0, rec.count())
		h.timers.Fire(1)
		require.Equal(t, 1, rec.count())
		assert.Equal(t, 2, rec.comps[0].Retries)
	})

	t.Run("ReplyAfterRetransmission", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		xid := h.issue(t, 111, rec.handler)
		h.timers.Fire(DefaultRetransmitAfter)
		assert.Equal(t, 2, h.tr.SentCount())

		h.reply(xid)
		require.Equal(t, 1, rec.count())
		assert.Equal(t, 1, rec.comps[0].Retries)
	})

	t.Run("ManyCallsTimeOutIndependently", func(t *testing.T) {
		h := newHarness(t, func(c *Config) {
			c.RetransmitAfter = 2
			c.MaxRetransmits = 1
			c.Buckets = 3
		})
		var rec recorder

		for i := 0; i < 10; i++ {
			h.issue(t, 111, rec.handler)
		}
		h.timers.Fire(1)
		h.issue(t, 111, rec.handler)

		h.timers.Fire(3)
		assert.Equal(t, 10, rec.count())
		assert.Equal(t, 1, h.client.Pending())

		h.timers.Fire(1)
		assert.Equal(t, 11, rec.count())
	})
}

// ============================================================================
// Teardown
// ============================================================================

func TestClose(t *testing.T) {
	t.Run("AbandonsPendingCallsSilently", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		var xids []uint32
		for i := 0; i < 5; i++ {
			xids = append(xids, h.issue(t, 111, rec.handler))
		}

		require.NoError(t, h.client.Close())
		assert.Equal(t, 0, rec.count())
		assert.Equal(t, 0, h.client.Pending())
		assert.Equal(t, uint64(5), h.client.Stats().Abandoned)
		assert.True(t, h.tr.Closed())
		assert.Equal(t, 0, h.timers.Active())

		// Late replies and ticks are ignored
		h.reply(xids[0])
		h.client.Tick()
		assert.Equal(t, 0, rec.count())
	})

	t.Run("IssueAfterClose", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.client.Close())

		_, err := h.client.IssueCall(context.Background(), 111, 1, 1, 0, nil, nil)
		assert.ErrorIs(t, err, rpc.ErrClientClosed)
	})

	t.Run("Idempotent", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.client.Close())
		assert.NoError(t, h.client.Close())
	})

	t.Run("AbandonSingleCall", func(t *testing.T) {
		h := newHarness(t, nil)
		var rec recorder

		xid := h.issue(t, 111, rec.handler)
		assert.True(t, h.client.Abandon(xid))
		assert.False(t, h.client.Abandon(xid))

		h.reply(xid)
		h.timers.Fire(1000)
		assert.Equal(t, 0, rec.count())
	})
}

// ============================================================================
// Synchronous calls
// ============================================================================

// echoServer answers every call with SUCCESS and the given results.
func echoServer(stat uint32, results ...uint32) memory.Responder {
	return func(d memory.Datagram) []byte {
		return rpc.EncodeAcceptedReply(xidOf(d), stat, words(results...))
	}
}

func TestCall(t *testing.T) {
	t.Run("DecodesResults", func(t *testing.T) {
		h := newHarness(t, nil)
		h.tr.Respond(echoServer(rpc.RPCSuccess, 2049))

		var port uint32
		err := h.client.Call(context.Background(), 111, rpc.ProgramPortmap, 2, 3,
			rpc.Uint32Args(rpc.ProgramNFS, 3, 17, 0),
			func(cur *rpc.Cursor) error {
				var err error
				port, err = cur.Uint32()
				return err
			})
		require.NoError(t, err)
		assert.Equal(t, uint32(2049), port)
		assert.Equal(t, 0, h.client.Pending())
	})

	t.Run("Ping", func(t *testing.T) {
		h := newHarness(t, nil)
		h.tr.Respond(echoServer(rpc.RPCSuccess))

		require.NoError(t, h.client.Ping(context.Background(), 111, rpc.ProgramPortmap, 2))
	})

	t.Run("UnsuccessfulReply", func(t *testing.T) {
		h := newHarness(t, nil)
		h.tr.Respond(echoServer(rpc.RPCProgUnavail))

		err := h.client.Ping(context.Background(), 111, 400000, 1)
		var re *rpc.ReplyError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, uint32(rpc.RPCProgUnavail), re.AcceptStat)
	})

	t.Run("DecoderErrorIsReturned", func(t *testing.T) {
		h := newHarness(t, nil)
		h.tr.Respond(echoServer(rpc.RPCSuccess))

		err := h.client.Call(context.Background(), 111, 1, 1, 0, nil, func(cur *rpc.Cursor) error {
			_, err := cur.Uint32()
			return err
		})
		assert.Error(t, err)
	})

	t.Run("TimesOut", func(t *testing.T) {
		h := newHarness(t, func(c *Config) {
			c.RetransmitAfter = 1
			c.MaxRetransmits = 1
		})

		errC := make(chan error, 1)
		go func() { errC <- h.client.Ping(context.Background(), 111, 1, 1) }()

		require.Eventually(t, func() bool { return h.client.Pending() == 1 }, time.Second, time.Millisecond)
		h.timers.Fire(2)

		select {
		case err := <-errC:
			assert.ErrorIs(t, err, rpc.ErrTimeout)
		case <-time.After(time.Second):
			t.Fatal("Call did not return after timeout")
		}
	})

	t.Run("ContextCancelAbandons", func(t *testing.T) {
		h := newHarness(t, nil)

		ctx, cancel := context.WithCancel(context.Background())
		errC := make(chan error, 1)
		go func() { errC <- h.client.Ping(ctx, 111, 1, 1) }()

		require.Eventually(t, func() bool { return h.client.Pending() == 1 }, time.Second, time.Millisecond)
		cancel()

		select {
		case err := <-errC:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("Call did not return after cancel")
		}
		assert.Equal(t, 0, h.client.Pending())
		assert.Equal(t, uint64(1), h.client.Stats().Abandoned)
	})

	t.Run("CloseUnblocksWaiters", func(t *testing.T) {
		h := newHarness(t, nil)

		errC := make(chan error, 1)
		go func() { errC <- h.client.Ping(context.Background(), 111, 1, 1) }()

		require.Eventually(t, func() bool { return h.client.Pending() == 1 }, time.Second, time.Millisecond)
		require.NoError(t, h.client.Close())

		select {
		case err := <-errC:
			assert.ErrorIs(t, err, rpc.ErrClientClosed)
		case <-time.After(time.Second):
			t.Fatal("Call did not return after Close")
		}
	})

	t.Run("ConcurrentCallers", func(t *testing.T) {
		h := newHarness(t, nil)
		h.tr.Respond(func(d memory.Datagram) []byte {
			// Echo the single argument word back as the result
			arg := d.Data[len(d.Data)-4:]
			return rpc.EncodeAcceptedReply(xidOf(d), rpc.RPCSuccess, arg)
		})

		var wg sync.WaitGroup
		for i := uint32(0); i < 32; i++ {
			wg.Add(1)
			go func(i uint32) {
				defer wg.Done()
				var got uint32
				err := h.client.Call(context.Background(), 111, 1, 1, 1, rpc.Uint32Args(i),
					func(cur *rpc.Cursor) error {
						var err error
						got, err = cur.Uint32()
						return err
					})
				assert.NoError(t, err)
				assert.Equal(t, i, got)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 0, h.client.Pending())
	})
}

// ============================================================================
// Metrics
// ============================================================================

type fakeMetrics struct {
	mu          sync.Mutex
	issued      int
	retransmits int
	failures    int
	outcomes    []string
	drops       []string
	pending     int
}

func (f *fakeMetrics) RecordCallIssued(program, procedure uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
}

func (f *fakeMetrics) RecordRetransmit(program, procedure uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retransmits++
}

func (f *fakeMetrics) RecordRetransmitFailure() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
}

func (f *fakeMetrics) RecordCompletion(program, procedure uint32, outcome string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

func (f *fakeMetrics) RecordDroppedDatagram(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drops = append(f.drops, reason)
}

func (f *fakeMetrics) SetPendingCalls(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = n
}

func TestMetrics(t *testing.T) {
	fm := &fakeMetrics{}
	h := newHarness(t, func(c *Config) {
		c.RetransmitAfter = 1
		c.MaxRetransmits = 1
		c.Metrics = fm
	})

	ok := h.issue(t, 111, nil)
	h.issue(t, 111, nil)
	assert.Equal(t, 2, fm.pending)

	h.reply(ok)
	h.reply(ok)
	h.tr.Deliver([]byte{0}, netip.AddrPortFrom(testServer, 111))

	h.timers.Fire(2)

	assert.Equal(t, 2, fm.issued)
	assert.Equal(t, 1, fm.retransmits)
	assert.Equal(t, 0, fm.failures)
	assert.Equal(t, []string{metrics.OutcomeSuccess, metrics.OutcomeTimeout}, fm.outcomes)
	assert.ElementsMatch(t, []string{metrics.DropUnknownXID, metrics.DropMalformed}, fm.drops)
	assert.Equal(t, 0, fm.pending)
}
