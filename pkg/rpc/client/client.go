// Package client implements a reliable ONC RPC client over an unreliable
// datagram transport.
//
// Calls are matched to replies by transaction id (xid). A periodic timer
// drives retransmission: a call without a reply is resent every
// RetransmitAfter ticks, and fails with rpc.ErrTimeout once MaxRetransmits
// retransmissions went unanswered.
//
// The client is driven by two stimuli, inbound datagrams and timer ticks,
// which may arrive on different goroutines. A single mutex guards all
// client state; completion handlers run after it is released.
package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/sunrpc/internal/logger"
	"github.com/marmos91/sunrpc/internal/telemetry"
	"github.com/marmos91/sunrpc/pkg/bufpool"
	"github.com/marmos91/sunrpc/pkg/metrics"
	"github.com/marmos91/sunrpc/pkg/rpc"
	"github.com/marmos91/sunrpc/pkg/timer"
	"github.com/marmos91/sunrpc/pkg/transport"
)

// Stats are per-client counters.
type Stats struct {
	Issued             uint64
	Retransmits        uint64
	RetransmitFailures uint64
	Replies            uint64
	Timeouts           uint64
	Abandoned          uint64
	DroppedMalformed   uint64
	DroppedUnknown     uint64
}

// Client is an RPC client bound to one server host.
type Client struct {
	cfg       Config
	id        string
	transport transport.Transport
	metrics   metrics.RPCMetrics

	mu      sync.Mutex
	table   *callTable
	nextXID uint32
	dest    netip.AddrPort
	timer   timer.Handle
	closed  bool
	closedC chan struct{}
	stats   Stats
}

// New creates a client that sends through tr and retransmits on timers
// from sched. The client owns tr from here on and closes it in Close.
func New(cfg Config, tr transport.Transport, sched timer.Scheduler) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	seed, err := randomXID()
	if err != nil {
		return nil, fmt.Errorf("seed transaction id: %w", err)
	}

	c := &Client{
		cfg:       cfg,
		id:        uuid.NewString(),
		transport: tr,
		metrics:   cfg.Metrics,
		table:     newCallTable(cfg.Buckets),
		nextXID:   seed,
		closedC:   make(chan struct{}),
	}

	tr.SetReceiveHandler(c.handleDatagram)

	h, err := sched.Every(cfg.TickPeriod, c.Tick)
	if err != nil {
		tr.SetReceiveHandler(nil)
		return nil, fmt.Errorf("create retransmit timer: %w", err)
	}
	c.timer = h

	logger.Debug("RPC client created",
		logger.KeyClientID, c.id,
		logger.KeyRemoteAddr, cfg.Server.String(),
		"tick_period", cfg.TickPeriod,
		"retransmit_after", cfg.RetransmitAfter,
		"max_retransmits", cfg.MaxRetransmits)

	return c, nil
}

func randomXID() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// ID returns the client's instance id, used to correlate logs and spans.
func (c *Client) ID() string {
	return c.id
}

// ============================================================================
// Issuing calls
// ============================================================================

// IssueCall encodes and sends a call to (server, port) and returns its xid.
//
// args appends the procedure arguments after the envelope; nil means none.
// handler is invoked once with the reply or the timeout; nil discards the
// outcome.
//
// The call is in the pending table before it is sent, so a reply can never
// outrun its registration. If the first send fails the call is rolled back
// and the error, wrapping rpc.ErrTransportSend, is returned. No retry is
// scheduled for a call that never left the client.
func (c *Client) IssueCall(ctx context.Context, port uint16, program, version, procedure uint32, args rpc.ArgEncoder, handler Handler) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, rpc.ErrClientClosed
	}

	xid := c.allocXID()
	hdr := rpc.CallHeader{XID: xid, Program: program, Version: version, Procedure: procedure}

	buf := bufpool.Get(c.cfg.MaxDatagramSize)
	req, err := c.encode(buf, hdr, args)
	if err != nil {
		bufpool.Put(buf)
		return 0, err
	}

	call := &pendingCall{
		xid:     xid,
		header:  hdr,
		buf:     buf,
		req:     req,
		state:   StateFresh,
		handler: handler,
		issued:  time.Now(),
	}

	_, call.span = telemetry.StartCallSpan(ctx, xid, program, version, procedure,
		telemetry.ClientID(c.id),
		telemetry.ServerAddress(c.cfg.Server.String()),
		telemetry.ServerPort(port))

	c.table.insert(call)
	c.dest = netip.AddrPortFrom(c.cfg.Server, port)
	call.dest = c.dest

	if err := c.transport.Send(call.req, call.dest); err != nil {
		c.table.removeExact(xid)
		bufpool.Put(buf)
		sendErr := fmt.Errorf("%w: %w", rpc.ErrTransportSend, err)
		telemetry.EndCallSpan(call.span, "send_failed", sendErr)
		logger.Debug("RPC call send failed",
			logger.XID(xid), logger.RemoteAddr(call.dest), logger.Err(err))
		return 0, sendErr
	}

	c.stats.Issued++
	if c.metrics != nil {
		c.metrics.RecordCallIssued(program, procedure)
		c.metrics.SetPendingCalls(c.table.len())
	}

	logger.Debug("RPC call issued",
		logger.XID(xid),
		logger.Program(program),
		logger.Version(version),
		logger.Procedure(procedure),
		logger.RemoteAddr(call.dest),
		logger.KeySize, len(call.req))

	return xid, nil
}

// allocXID returns the next counter value not held by a pending call.
// The counter wraps at 32 bits; skipping live ids keeps a wrapped counter
// from aliasing a call that is still outstanding.
func (c *Client) allocXID() uint32 {
	for {
		xid := c.nextXID
		c.nextXID++
		if !c.table.contains(xid) {
			return xid
		}
		logger.Warn("Skipping transaction id still in use", logger.XID(xid))
	}
}

// encode writes the envelope and arguments into buf's backing array.
func (c *Client) encode(buf []byte, hdr rpc.CallHeader, args rpc.ArgEncoder) ([]byte, error) {
	envelope, err := rpc.EncodeCall(buf[:0], hdr, c.cfg.Credential)
	if err != nil {
		return nil, err
	}
	if args == nil {
		return envelope, nil
	}

	w := bytes.NewBuffer(envelope)
	if err := args(w); err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	if w.Len() > c.cfg.MaxDatagramSize {
		return nil, fmt.Errorf("%w: call is %d bytes, limit is %d", rpc.ErrEncodingOverflow, w.Len(), c.cfg.MaxDatagramSize)
	}
	return w.Bytes(), nil
}

// ============================================================================
// Receive path
// ============================================================================

// handleDatagram is the transport receive handler. Undecodable datagrams
// and replies matching no pending call are dropped.
func (c *Client) handleDatagram(data []byte, from netip.AddrPort) {
	reply, cur, err := rpc.DecodeReplyHeader(data)
	if err != nil {
		c.drop(metrics.DropMalformed, func(s *Stats) { s.DroppedMalformed++ })
		logger.Debug("Dropping malformed datagram",
			logger.RemoteAddr(from), logger.KeySize, len(data), logger.Err(err))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	call, ok := c.table.removeExact(reply.XID)
	if !ok {
		c.stats.DroppedUnknown++
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.RecordDroppedDatagram(metrics.DropUnknownXID)
		}
		logger.Debug("Dropping reply for unknown transaction",
			logger.XID(reply.XID), logger.RemoteAddr(from), logger.KeyReason, rpc.ErrUnknownTransaction)
		return
	}
	c.stats.Replies++
	pending := c.table.len()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetPendingCalls(pending)
	}

	c.complete(call, &Completion{Reply: reply, Results: cur})
}

func (c *Client) drop(reason string, count func(*Stats)) {
	c.mu.Lock()
	count(&c.stats)
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.RecordDroppedDatagram(reason)
	}
}

// complete fills in the call identity, runs the handler and releases the
// request buffer. The call must already be out of the table and the lock
// must not be held.
func (c *Client) complete(call *pendingCall, comp *Completion) {
	comp.XID = call.xid
	comp.Program = call.header.Program
	comp.Version = call.header.Version
	comp.Procedure = call.header.Procedure
	comp.Retries = call.retries
	comp.Elapsed = time.Since(call.issued)

	if call.handler != nil {
		call.handler(comp)
	}

	bufpool.Put(call.buf)
	call.buf, call.req = nil, nil

	outcome := comp.outcome()
	if c.metrics != nil {
		c.metrics.RecordCompletion(call.header.Program, call.header.Procedure, outcome, comp.Elapsed)
	}

	var stat string
	if comp.Err == nil {
		stat = rpc.AcceptStatString(comp.Reply.AcceptStat)
	}
	telemetry.EndCallSpan(call.span, outcome, comp.Err,
		telemetry.RPCRetries(call.retries), telemetry.RPCAcceptStat(stat))

	logger.Debug("RPC call completed",
		logger.XID(call.xid),
		logger.KeyAcceptStat, stat,
		logger.Retries(call.retries),
		logger.KeyDurationMs, float64(comp.Elapsed.Microseconds())/1000)
}

// ============================================================================
// Retransmission
// ============================================================================

// Tick advances every pending call by one timer firing. It is registered
// with the scheduler in New and exported so tests can step it directly.
func (c *Client) Tick() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	var failed []*pendingCall
	c.table.forEach(func(call *pendingCall) {
		switch call.tick(c.cfg.RetransmitAfter, c.cfg.MaxRetransmits) {
		case actionFail:
			c.table.removeExact(call.xid)
			c.stats.Timeouts++
			failed = append(failed, call)

		case actionRetransmit:
			err := c.transport.Send(call.req, call.dest)
			call.retransmitted(err)
			if err != nil {
				c.stats.RetransmitFailures++
				if c.metrics != nil {
					c.metrics.RecordRetransmitFailure()
				}
				call.span.AddEvent(telemetry.EventRetransmitFailure)
				logger.Debug("Retransmission failed, retrying next tick",
					logger.XID(call.xid), logger.Ticks(call.ticks), logger.Err(err))
				return
			}
			c.stats.Retransmits++
			if c.metrics != nil {
				c.metrics.RecordRetransmit(call.header.Program, call.header.Procedure)
			}
			call.span.AddEvent(telemetry.EventRetransmit)
			logger.Debug("Retransmitted RPC call",
				logger.XID(call.xid), logger.Retries(call.retries), logger.RemoteAddr(call.dest))
		}
	})
	pending := c.table.len()
	c.mu.Unlock()

	if c.metrics != nil && len(failed) > 0 {
		c.metrics.SetPendingCalls(pending)
	}

	for _, call := range failed {
		logger.Warn("RPC call timed out",
			logger.XID(call.xid),
			logger.Program(call.header.Program),
			logger.Procedure(call.header.Procedure),
			logger.Retries(call.retries),
			logger.RemoteAddr(call.dest))
		c.complete(call, &Completion{Err: rpc.ErrTimeout})
	}
}

// ============================================================================
// Cancellation and teardown
// ============================================================================

// Abandon drops a pending call without invoking its handler. It reports
// whether the call was still pending.
func (c *Client) Abandon(xid uint32) bool {
	c.mu.Lock()
	call, ok := c.table.removeExact(xid)
	if ok {
		c.stats.Abandoned++
	}
	pending := c.table.len()
	c.mu.Unlock()

	if !ok {
		return false
	}
	c.release(call)
	if c.metrics != nil {
		c.metrics.SetPendingCalls(pending)
	}
	return true
}

func (c *Client) release(call *pendingCall) {
	bufpool.Put(call.buf)
	call.buf, call.req = nil, nil
	telemetry.EndCallSpan(call.span, "abandoned", nil, telemetry.RPCRetries(call.retries))
}

// Close cancels the retransmit timer, releases every pending call without
// invoking its handler and closes the transport. Callers must treat calls
// pending at Close as abandoned, not failed. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.closedC)
	c.timer.Cancel()
	calls := c.table.drain()
	c.stats.Abandoned += uint64(len(calls))
	c.mu.Unlock()

	for _, call := range calls {
		c.release(call)
	}
	if c.metrics != nil {
		c.metrics.SetPendingCalls(0)
	}

	logger.Debug("RPC client closed", logger.KeyClientID, c.id, logger.KeyPending, len(calls))

	if err := c.transport.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}

// ============================================================================
// Introspection
// ============================================================================

// Pending returns the number of outstanding calls.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.len()
}

// Destination returns the address of the most recently issued call.
func (c *Client) Destination() netip.AddrPort {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dest
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Config returns the effective (defaulted) configuration.
func (c *Client) Config() Config {
	return c.cfg
}
