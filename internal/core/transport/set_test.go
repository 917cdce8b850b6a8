package transport

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/internal/core/identity"
	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/types"
)

func loopbackConfig() config.TransportConfig {
	cfg := config.DefaultTransportConfig()
	cfg.ListenIP = "127.0.0.1"
	return cfg
}

func TestOpen_BothTransports(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	set, err := Open(loopbackConfig(), id)
	require.NoError(t, err)
	defer set.Close()

	all := set.All()
	require.Len(t, all, 2)
	assert.Equal(t, types.TransportDatagram, all[0].Kind())
	assert.Equal(t, types.TransportStream, all[1].Kind())
	assert.NotZero(t, set.Port(types.TransportDatagram))
	assert.NotZero(t, set.Port(types.TransportStream))

	adv := NewAdvertiser(id.ID(), netip.MustParseAddr("10.0.0.1"), set)
	addr := adv.AdvertisedAddress()
	assert.Equal(t, id.ID(), addr.ID)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), addr.IP)
	assert.Equal(t, set.Port(types.TransportDatagram), addr.UDPPort)
	assert.Equal(t, set.Port(types.TransportStream), addr.StreamPort)

	require.NoError(t, set.Close())
}

func TestOpen_DatagramOnly(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)

	cfg := loopbackConfig()
	cfg.EnableQUIC = false
	set, err := Open(cfg, id)
	require.NoError(t, err)
	defer set.Close()

	_, ok := set.Get(types.TransportStream)
	assert.False(t, ok)
	assert.Zero(t, set.Port(types.TransportStream))

	cfg.EnableUDP = false
	_, err = Open(cfg, id)
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestAdvertiser_UnspecifiedIP(t *testing.T) {
	adv := NewAdvertiser(types.RandomPeerID(), netip.IPv4Unspecified(), NewSet())
	addr := adv.AdvertisedAddress()
	assert.True(t, addr.IP.IsValid())
	assert.False(t, addr.IP.IsUnspecified())
}

func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Transport.ListenIP = "127.0.0.1"

	var set *Set
	var ap interfaces.AddressProvider
	app := fxtest.New(t,
		fx.Supply(cfg),
		identity.Module(),
		Module(),
		fx.Populate(&set, &ap),
	)
	app.RequireStart()
	defer func() {
		app.RequireStop()
		_ = set.Close()
	}()

	assert.Len(t, set.All(), 2)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), ap.AdvertisedAddress().IP)
}
