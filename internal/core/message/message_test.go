package message

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-handshake/pkg/types"
)

func testAddr(ip string, udp, stream uint16) types.PeerAddress {
	return types.NewPeerAddress(types.RandomPeerID(), netip.MustParseAddr(ip), udp, stream)
}

// TestMessage_Immutable 测试 With* 方法返回副本
func TestMessage_Immutable(t *testing.T) {
	sender := testAddr("10.0.0.1", 4000, 4001)
	recipient := testAddr("10.0.0.2", 5000, 5001)
	m := New(CommandPing, TypeRequest2, sender, recipient)

	withN := m.WithNeighbors(sender)
	assert.Empty(t, m.Neighbors())
	assert.Equal(t, []types.PeerAddress{sender}, withN.Neighbors())

	// 修改返回的切片不影响消息
	ns := withN.Neighbors()
	ns[0] = recipient
	assert.Equal(t, sender, withN.Neighbors()[0])

	udp := m.WithTransport(types.TransportDatagram)
	assert.Equal(t, types.TransportKind(0), m.Transport())
	assert.True(t, udp.IsDatagram())

	observed := udp.WithObservedSender(netip.MustParseAddrPort("198.51.100.9:7000"))
	assert.Equal(t, sender, m.Sender())
	assert.Equal(t, uint16(7000), observed.Sender().UDPPort)
	assert.Equal(t, m.ID(), observed.ID())
}

// TestMessage_NewAssignsUniqueIDs 测试关联 ID 唯一
func TestMessage_NewAssignsUniqueIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		m := New(CommandPing, TypeRequest1, types.PeerAddress{}, types.PeerAddress{})
		_, dup := seen[m.ID().String()]
		require.False(t, dup)
		seen[m.ID().String()] = struct{}{}
	}
}

func TestType_Classification(t *testing.T) {
	for _, typ := range []Type{TypeRequest1, TypeRequest2, TypeRequest3, TypeRequestFF1} {
		assert.True(t, typ.IsRequest(), typ.String())
		assert.False(t, typ.IsReply(), typ.String())
	}
	assert.True(t, TypeRequestFF1.IsFireAndForget())
	assert.False(t, TypeRequest1.IsFireAndForget())
	assert.True(t, TypeOK.IsReply())
	assert.False(t, Type(42).IsRequest())
	assert.Equal(t, "TYPE(42)", Type(42).String())
	assert.Equal(t, "PING", CommandPing.String())
}

// TestCodec_RoundTrip 测试完整消息编解码
func TestCodec_RoundTrip(t *testing.T) {
	sender := testAddr("10.0.0.1", 4000, 4001).WithFlags(types.FlagFirewalledStream)
	recipient := testAddr("2001:db8::1", 5000, 0)
	m := New(CommandPing, TypeRequest2, sender, recipient).
		WithNeighbors(sender).
		WithSignature([]byte("pub"), []byte("sig"))

	data, err := Marshal(m)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, m.ID(), got.ID())
	assert.Equal(t, CommandPing, got.Command())
	assert.Equal(t, TypeRequest2, got.Type())
	assert.Equal(t, sender, got.Sender())
	assert.Equal(t, recipient, got.Recipient())
	assert.Equal(t, []types.PeerAddress{sender}, got.Neighbors())
	assert.Equal(t, []byte("pub"), got.PublicKey())
	assert.Equal(t, []byte("sig"), got.Signature())
	assert.True(t, got.IsSigned())
}

// TestCodec_SkipsUnknownFields 测试未知字段被跳过
func TestCodec_SkipsUnknownFields(t *testing.T) {
	m := New(CommandPing, TypeRequest1, testAddr("10.0.0.1", 1, 2), testAddr("10.0.0.2", 3, 4))
	data, err := Marshal(m)
	require.NoError(t, err)

	data = protowire.AppendTag(data, 99, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("future extension"))
	data = protowire.AppendTag(data, 100, protowire.VarintType)
	data = protowire.AppendVarint(data, 7)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, m.ID(), got.ID())
	assert.Equal(t, m.Sender(), got.Sender())
}

func TestCodec_Errors(t *testing.T) {
	t.Run("缺少ID", func(t *testing.T) {
		var b []byte
		b = protowire.AppendTag(b, fieldType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(TypeRequest1))
		_, err := Unmarshal(b)
		assert.ErrorIs(t, err, ErrMissingID)
	})

	t.Run("截断", func(t *testing.T) {
		m := New(CommandPing, TypeRequest1, testAddr("10.0.0.1", 1, 2), testAddr("10.0.0.2", 3, 4))
		data, err := Marshal(m)
		require.NoError(t, err)
		_, err = Unmarshal(data[:len(data)-3])
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("非法IP长度", func(t *testing.T) {
		var addr []byte
		addr = protowire.AppendTag(addr, addrFieldIP, protowire.BytesType)
		addr = protowire.AppendBytes(addr, []byte{1, 2, 3})
		var b []byte
		b = protowire.AppendTag(b, fieldSender, protowire.BytesType)
		b = protowire.AppendBytes(b, addr)
		_, err := Unmarshal(b)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("帧过大", func(t *testing.T) {
		_, err := Unmarshal(make([]byte, MaxFrameSize+1))
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})
}

// stubSigner 测试用签名器
type stubSigner struct {
	err error
}

func (s stubSigner) PublicKey() []byte { return []byte("stub-pub") }

func (s stubSigner) Sign(data []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte("sig:"), byte(len(data))), nil
}

func TestSign(t *testing.T) {
	m := New(CommandPing, TypeOK, testAddr("10.0.0.1", 1, 2), testAddr("10.0.0.2", 3, 4))

	signed, err := Sign(m, stubSigner{})
	require.NoError(t, err)
	assert.True(t, signed.IsSigned())
	assert.False(t, m.IsSigned(), "原消息不变")
	assert.Equal(t, []byte("stub-pub"), signed.PublicKey())

	// 签名载荷与签名字段无关
	assert.Equal(t, SigningPayload(m), SigningPayload(signed))

	_, err = Sign(m, nil)
	assert.ErrorIs(t, err, ErrNilSigner)

	boom := errors.New("hsm offline")
	_, err = Sign(m, stubSigner{err: boom})
	assert.ErrorIs(t, err, boom)

	same, err := SignIfRequested(m, nil, false)
	require.NoError(t, err)
	assert.Same(t, m, same)
}
