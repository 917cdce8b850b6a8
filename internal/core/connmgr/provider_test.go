package connmgr

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/types"
)

func newTestProvider(t *testing.T, datagram, stream int64) *Provider {
	t.Helper()
	p, err := New(Config{MaxDatagram: datagram, MaxStream: stream})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{MaxDatagram: 0, MaxStream: 1}.Validate(), ErrInvalidConfig)

	_, err := New(Config{MaxDatagram: 1, MaxStream: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigFromUnified(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Transport.MaxConcurrentUDP = 3
	cfg.Transport.MaxConcurrentStream = 4

	got := ConfigFromUnified(cfg)
	assert.Equal(t, int64(3), got.MaxDatagram)
	assert.Equal(t, int64(4), got.MaxStream)
	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))
}

func TestProvider_AcquireRelease(t *testing.T) {
	p := newTestProvider(t, 2, 1)
	ctx := context.Background()

	h, err := p.Acquire(ctx, types.TransportDatagram)
	require.NoError(t, err)
	assert.Equal(t, types.TransportDatagram, h.Transport())
	assert.Equal(t, int64(1), p.InUse(types.TransportDatagram))
	assert.Equal(t, int64(0), p.InUse(types.TransportStream))

	h.Release()
	h.Release() // 幂等
	assert.Equal(t, int64(0), p.InUse(types.TransportDatagram))

	_, err = p.Acquire(ctx, types.TransportKind(9))
	assert.ErrorIs(t, err, types.ErrUnknownTransport)
}

func TestProvider_BlocksWhenExhausted(t *testing.T) {
	p := newTestProvider(t, 1, 1)

	h, err := p.Acquire(context.Background(), types.TransportStream)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx, types.TransportStream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 另一种传输不受影响
	other, err := p.Acquire(context.Background(), types.TransportDatagram)
	require.NoError(t, err)
	other.Release()

	h.Release()
	h2, err := p.Acquire(context.Background(), types.TransportStream)
	require.NoError(t, err)
	h2.Release()
}

func TestProvider_CloseWakesWaiters(t *testing.T) {
	p := newTestProvider(t, 1, 1)

	h, err := p.Acquire(context.Background(), types.TransportDatagram)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Acquire(context.Background(), types.TransportDatagram)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrProviderClosed)
	case <-time.After(time.Second):
		t.Fatal("Acquire 未被关闭唤醒")
	}

	// 关闭后已借出的句柄仍可归还
	h.Release()
	_, err = p.Acquire(context.Background(), types.TransportDatagram)
	assert.ErrorIs(t, err, ErrProviderClosed)
}

func TestProvider_ConcurrentUse(t *testing.T) {
	p := newTestProvider(t, 4, 4)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := types.TransportDatagram
			if i%2 == 0 {
				kind = types.TransportStream
			}
			h, err := p.Acquire(context.Background(), kind)
			if !assert.NoError(t, err) {
				return
			}
			assert.LessOrEqual(t, p.InUse(kind), int64(4))
			h.Release()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(0), p.InUse(types.TransportDatagram))
	assert.Equal(t, int64(0), p.InUse(types.TransportStream))
}

func TestModule(t *testing.T) {
	var cp interfaces.ConnectionProvider
	var p *Provider
	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Populate(&cp, &p),
	)
	app.RequireStart()
	assert.Same(t, p, cp)
	app.RequireStop()

	_, err := p.Acquire(context.Background(), types.TransportDatagram)
	assert.ErrorIs(t, err, ErrProviderClosed)
}
