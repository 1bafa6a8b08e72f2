package memory

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var peer = netip.MustParseAddrPort("192.0.2.1:111")

func TestTransport(t *testing.T) {
	t.Run("RecordsCopies", func(t *testing.T) {
		tr := New()
		data := []byte{1, 2, 3}
		require.NoError(t, tr.Send(data, peer))
		data[0] = 9

		sent := tr.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, []byte{1, 2, 3}, sent[0].Data)
		assert.Equal(t, peer, sent[0].To)
	})

	t.Run("InjectedFailures", func(t *testing.T) {
		tr := New()
		tr.FailNextSends(2)
		assert.ErrorIs(t, tr.Send([]byte{1}, peer), ErrInjected)
		assert.ErrorIs(t, tr.Send([]byte{1}, peer), ErrInjected)
		assert.NoError(t, tr.Send([]byte{1}, peer))
		assert.Equal(t, 1, tr.SentCount())
	})

	t.Run("ResponderDeliversAsync", func(t *testing.T) {
		tr := New()
		got := make(chan []byte, 1)
		tr.SetReceiveHandler(func(data []byte, from netip.AddrPort) { got <- data })
		tr.Respond(func(d Datagram) []byte { return []byte("pong") })

		require.NoError(t, tr.Send([]byte("ping"), peer))
		select {
		case data := <-got:
			assert.Equal(t, []byte("pong"), data)
		case <-time.After(5 * time.Second):
			t.Fatal("no reply delivered")
		}
	})

	t.Run("ClosedRejectsSends", func(t *testing.T) {
		tr := New()
		require.NoError(t, tr.Close())
		assert.True(t, tr.Closed())
		assert.Error(t, tr.Send([]byte{1}, peer))
	})
}
