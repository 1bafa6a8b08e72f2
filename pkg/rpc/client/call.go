package client

import (
	"context"

	"github.com/marmos91/sunrpc/pkg/rpc"
)

// ResultDecoder reads procedure results from an accepted, successful reply.
type ResultDecoder func(cur *rpc.Cursor) error

// Call issues a call and waits for its outcome. decode runs inside the
// completion handler while the cursor is valid; nil skips decoding.
//
// The error is nil on success, rpc.ErrTimeout when retransmissions ran out,
// a *rpc.ReplyError for denied or unsuccessful replies, rpc.ErrClientClosed
// if the client is closed while waiting, or ctx.Err() if the context ends
// first. In that last case the call is abandoned.
func (c *Client) Call(ctx context.Context, port uint16, program, version, procedure uint32, args rpc.ArgEncoder, decode ResultDecoder) error {
	done := make(chan error, 1)

	xid, err := c.IssueCall(ctx, port, program, version, procedure, args, func(comp *Completion) {
		err := comp.Result()
		if err == nil && decode != nil {
			err = decode(comp.Results)
		}
		done <- err
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-c.closedC:
		return rpc.ErrClientClosed
	case <-ctx.Done():
		if c.Abandon(xid) {
			return ctx.Err()
		}
		// A reply or timeout won the race and the handler is running
		select {
		case err := <-done:
			return err
		case <-c.closedC:
			return rpc.ErrClientClosed
		}
	}
}

// Ping calls procedure 0 (NULL), which every ONC RPC program implements.
func (c *Client) Ping(ctx context.Context, port uint16, program, version uint32) error {
	return c.Call(ctx, port, program, version, 0, rpc.NoArgs, nil)
}
