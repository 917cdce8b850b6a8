package types

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerID_ParseRoundTrip(t *testing.T) {
	id := RandomPeerID()

	parsed, err := ParsePeerID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = ParsePeerID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestPeerID_ParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"空字符串", ""},
		{"非法字符", "0OIl"},
		{"长度不足", "3mJr7AoUXx2Wqd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePeerID(tt.input)
			assert.ErrorIs(t, err, ErrInvalidPeerID)
		})
	}
}

func TestPeerID_Zero(t *testing.T) {
	assert.True(t, ZeroPeerID.IsZero())
	assert.Empty(t, ZeroPeerID.String())
	assert.False(t, RandomPeerID().IsZero())
	assert.LessOrEqual(t, len(RandomPeerID().ShortString()), 8)
}

func TestPeerAddress_AddrPort(t *testing.T) {
	addr := NewPeerAddress(RandomPeerID(), netip.MustParseAddr("10.0.0.1"), 4000, 4001)

	assert.Equal(t, netip.MustParseAddrPort("10.0.0.1:4000"), addr.AddrPort(TransportDatagram))
	assert.Equal(t, netip.MustParseAddrPort("10.0.0.1:4001"), addr.AddrPort(TransportStream))
	assert.False(t, addr.AddrPort(TransportKind(0)).IsValid())
}

func TestPeerAddress_WithObserved(t *testing.T) {
	addr := NewPeerAddress(RandomPeerID(), netip.MustParseAddr("192.168.1.2"), 4000, 4001).
		WithFlags(FlagFirewalledUDP)

	observed := addr.WithObserved(TransportDatagram, netip.MustParseAddrPort("203.0.113.7:61000"))

	assert.Equal(t, addr.ID, observed.ID)
	assert.Equal(t, netip.MustParseAddr("203.0.113.7"), observed.IP)
	assert.Equal(t, uint16(61000), observed.UDPPort)
	assert.Equal(t, uint16(4001), observed.StreamPort, "其他传输的端口不变")
	assert.True(t, observed.Flags.Has(FlagFirewalledUDP))

	// 原值不可变
	assert.Equal(t, uint16(4000), addr.UDPPort)

	// 无效观测地址原样返回
	assert.Equal(t, addr, addr.WithObserved(TransportStream, netip.AddrPort{}))
}

func TestPeerAddress_Validate(t *testing.T) {
	addr := NewPeerAddress(RandomPeerID(), netip.MustParseAddr("127.0.0.1"), 4000, 0)

	assert.NoError(t, addr.Validate(TransportDatagram))
	assert.ErrorIs(t, PeerAddress{}.Validate(TransportDatagram), ErrInvalidAddress)
	assert.ErrorIs(t, addr.Validate(TransportKind(9)), ErrUnknownTransport)
	assert.True(t, PeerAddress{}.IsBroadcast())
}

func TestParseTransportKind(t *testing.T) {
	k, err := ParseTransportKind("udp")
	require.NoError(t, err)
	assert.Equal(t, TransportDatagram, k)

	k, err = ParseTransportKind("quic")
	require.NoError(t, err)
	assert.Equal(t, TransportStream, k)

	_, err = ParseTransportKind("carrier-pigeon")
	assert.ErrorIs(t, err, ErrUnknownTransport)
}

func TestParsePeerAddress(t *testing.T) {
	id := RandomPeerID()

	tests := []struct {
		name    string
		in      string
		want    PeerAddress
		wantErr bool
	}{
		{"ip and udp", "10.0.0.2:7700", PeerAddress{IP: netip.MustParseAddr("10.0.0.2"), UDPPort: 7700}, false},
		{"with stream", "10.0.0.2:7700/7701", NewPeerAddress(ZeroPeerID, netip.MustParseAddr("10.0.0.2"), 7700, 7701), false},
		{"with id", id.String() + "@[::1]:7700/7701", NewPeerAddress(id, netip.MustParseAddr("::1"), 7700, 7701), false},
		{"bad id", "nope@10.0.0.2:7700", PeerAddress{}, true},
		{"no port", "10.0.0.2", PeerAddress{}, true},
		{"bad stream", "10.0.0.2:7700/x", PeerAddress{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeerAddress(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
