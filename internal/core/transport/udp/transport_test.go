package udp

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/types"
)

var loopback = netip.MustParseAddrPort("127.0.0.1:0")

func listen(t *testing.T, cfg Config) (*Transport, chan interfaces.Inbound) {
	t.Helper()
	if !cfg.ListenAddr.IsValid() {
		cfg.ListenAddr = loopback
	}
	tr, err := Listen(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	ch := make(chan interfaces.Inbound, 8)
	require.NoError(t, tr.Start(func(in interfaces.Inbound) { ch <- in }))
	return tr, ch
}

func recv(t *testing.T, ch chan interfaces.Inbound) interfaces.Inbound {
	t.Helper()
	select {
	case in := <-ch:
		return in
	case <-time.After(2 * time.Second):
		t.Fatal("等待数据报超时")
		return interfaces.Inbound{}
	}
}

func TestTransport_SendAndReply(t *testing.T) {
	a, aCh := listen(t, Config{})
	b, bCh := listen(t, Config{})
	ctx := context.Background()

	assert.Equal(t, types.TransportDatagram, a.Kind())
	assert.NotZero(t, a.LocalAddr().Port())

	require.NoError(t, a.Send(ctx, b.LocalAddr(), []byte("ping"), true))
	in := recv(t, bCh)
	assert.Equal(t, []byte("ping"), in.Data)
	assert.Equal(t, a.LocalAddr(), in.From)
	assert.Equal(t, types.TransportDatagram, in.Kind)
	require.NotNil(t, in.Responder)

	require.NoError(t, in.Responder.Reply(ctx, []byte("pong")))
	require.NoError(t, in.Responder.Close())

	out := recv(t, aCh)
	assert.Equal(t, []byte("pong"), out.Data)
	assert.Equal(t, b.LocalAddr(), out.From)
}

func TestTransport_BroadcastUsesConfiguredIP(t *testing.T) {
	// 以回环地址代替受限广播地址
	a, _ := listen(t, Config{BroadcastIP: netip.MustParseAddr("127.0.0.1")})
	b, bCh := listen(t, Config{})

	require.NoError(t, a.Broadcast(context.Background(), b.LocalAddr().Port(), []byte("hello")))
	in := recv(t, bCh)
	assert.Equal(t, []byte("hello"), in.Data)
}

func TestTransport_Errors(t *testing.T) {
	a, _ := listen(t, Config{})

	assert.ErrorIs(t, a.Start(func(interfaces.Inbound) {}), ErrAlreadyStarted)

	big := make([]byte, MaxDatagramSize+1)
	assert.ErrorIs(t, a.Send(context.Background(), a.LocalAddr(), big, false), ErrFrameTooLarge)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Send(ctx, a.LocalAddr(), []byte("x"), false), context.Canceled)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Send(context.Background(), a.LocalAddr(), []byte("x"), false), ErrTransportClosed)
}
