package identity

import (
	"crypto/ed25519"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/internal/core/message"
	"github.com/dep2p/go-handshake/pkg/types"
)

func TestIdentity_FromSeedDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	a, err := FromSeed(seed)
	require.NoError(t, err)
	b, err := FromSeed(seed)
	require.NoError(t, err)

	assert.Equal(t, a.ID(), b.ID())
	assert.Equal(t, a.PublicKey(), b.PublicKey())
	assert.Equal(t, PeerIDFromPublicKey(a.PublicKey()), a.ID())
	assert.False(t, a.ID().IsZero())

	_, err = FromSeed([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestIdentity_GenerateUnique(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestStorage_LoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "node.key")

	_, err := LoadOrCreate(path, false)
	assert.ErrorIs(t, err, os.ErrNotExist)

	created, err := LoadOrCreate(path, true)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadOrCreate(path, true)
	require.NoError(t, err)
	assert.Equal(t, created.ID(), loaded.ID())

	require.NoError(t, os.WriteFile(path, []byte("not-hex"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestIdentity_Sign(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	data := []byte("handshake")
	sig, err := id.Sign(data)
	require.NoError(t, err)
	assert.Len(t, sig, ed25519.SignatureSize)
	assert.True(t, ed25519.Verify(id.PublicKey(), data, sig))
	assert.False(t, ed25519.Verify(id.PublicKey(), []byte("other"), sig))
}

func signedMessage(t *testing.T, id *Identity) *message.Message {
	t.Helper()
	sender := types.NewPeerAddress(id.ID(), netip.MustParseAddr("127.0.0.1"), 4000, 4001)
	m := message.New(message.CommandPing, message.TypeRequest1, sender, types.PeerAddress{})
	signed, err := message.Sign(m, id)
	require.NoError(t, err)
	return signed
}

func TestKeyBook_Verify(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)
	kb, err := NewKeyBook(8)
	require.NoError(t, err)

	m := signedMessage(t, id)
	require.NoError(t, kb.Verify(m))

	pub, ok := kb.PublicKey(id.ID())
	require.True(t, ok)
	assert.Equal(t, id.PublicKey(), pub)
	assert.Equal(t, 1, kb.Len())

	// 缓存命中后再次验证
	require.NoError(t, kb.Verify(signedMessage(t, id)))
}

func TestKeyBook_VerifyFailures(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)
	other, err := Generate()
	require.NoError(t, err)
	kb, err := NewKeyBook(0)
	require.NoError(t, err)

	t.Run("未签名", func(t *testing.T) {
		m := message.New(message.CommandPing, message.TypeRequest1, types.PeerAddress{}, types.PeerAddress{})
		assert.ErrorIs(t, kb.Verify(m), ErrUnsigned)
	})

	t.Run("公钥与ID不符", func(t *testing.T) {
		m := signedMessage(t, id)
		forged := m.WithSignature(other.PublicKey(), m.Signature())
		assert.ErrorIs(t, kb.Verify(forged), ErrKeyMismatch)
	})

	t.Run("签名被篡改", func(t *testing.T) {
		m := signedMessage(t, id)
		sig := m.Signature()
		sig[0] ^= 0xff
		assert.ErrorIs(t, kb.Verify(m.WithSignature(m.PublicKey(), sig)), ErrInvalidSignature)
	})

	t.Run("内容被篡改", func(t *testing.T) {
		m := signedMessage(t, id)
		tampered := m.WithNeighbors(types.PeerAddress{ID: types.RandomPeerID()})
		assert.ErrorIs(t, kb.Verify(tampered), ErrInvalidSignature)
	})

	t.Run("公钥长度错误", func(t *testing.T) {
		m := signedMessage(t, id)
		assert.ErrorIs(t, kb.Verify(m.WithSignature([]byte("x"), m.Signature())), ErrInvalidSignature)
	})
}

func TestModule_ProvidesFromConfig(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 7
	expected, err := FromSeed(seed)
	require.NoError(t, err)

	cfg := config.NewConfig()
	cfg.Identity.PrivateKey = "07" + strings.Repeat("00", 31)

	var got *Identity
	var kb *KeyBook
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&got, &kb),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, expected.ID(), got.ID())
	assert.NotNil(t, kb)
}
