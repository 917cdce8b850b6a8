package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/types"
)

// ============================================================================
//                              Identity 实现
// ============================================================================

// Identity 节点身份（ed25519 密钥对）
type Identity struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	id   types.PeerID
}

// 确保实现接口
var _ interfaces.Signer = (*Identity)(nil)

// Generate 生成新的随机身份
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return newIdentity(priv, pub), nil
}

// FromSeed 从 32 字节种子恢复身份
func FromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKeySize
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return newIdentity(priv, priv.Public().(ed25519.PublicKey)), nil
}

func newIdentity(priv ed25519.PrivateKey, pub ed25519.PublicKey) *Identity {
	return &Identity{
		priv: priv,
		pub:  pub,
		id:   PeerIDFromPublicKey(pub),
	}
}

// ID 返回节点 ID
func (i *Identity) ID() types.PeerID {
	return i.id
}

// PublicKey 返回公钥原始字节
func (i *Identity) PublicKey() []byte {
	return append([]byte(nil), i.pub...)
}

// PrivateKey 返回私钥（用于生成 TLS 证书）
func (i *Identity) PrivateKey() ed25519.PrivateKey {
	return i.priv
}

// Seed 返回私钥种子
func (i *Identity) Seed() []byte {
	return i.priv.Seed()
}

// Sign 签名数据
func (i *Identity) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(i.priv, data), nil
}

// PeerIDFromPublicKey 从公钥派生 PeerID
//
// PeerID = BLAKE3(pub)[:20]
func PeerIDFromPublicKey(pub []byte) types.PeerID {
	sum := blake3.Sum256(pub)
	var id types.PeerID
	copy(id[:], sum[:types.PeerIDLen])
	return id
}
