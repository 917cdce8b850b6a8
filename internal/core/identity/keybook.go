package identity

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-handshake/internal/core/message"
	"github.com/dep2p/go-handshake/pkg/types"
)

// DefaultKeyBookSize 默认缓存的公钥数量
const DefaultKeyBookSize = 4096

// KeyBook 已验证公钥簿
//
// 缓存 PeerID → 公钥，避免对同一节点重复进行派生校验，
// 同时为其他组件提供按 PeerID 解析公钥的能力。
type KeyBook struct {
	keys *lru.Cache[types.PeerID, []byte]
}

// NewKeyBook 创建公钥簿
func NewKeyBook(size int) (*KeyBook, error) {
	if size <= 0 {
		size = DefaultKeyBookSize
	}
	cache, err := lru.New[types.PeerID, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create key cache: %w", err)
	}
	return &KeyBook{keys: cache}, nil
}

// PublicKey 返回已验证的公钥
func (kb *KeyBook) PublicKey(id types.PeerID) ([]byte, bool) {
	return kb.keys.Get(id)
}

// Len 返回缓存的公钥数量
func (kb *KeyBook) Len() int {
	return kb.keys.Len()
}

// Verify 验证消息签名
//
// 公钥必须能派生出发送方 PeerID，签名覆盖 message.SigningPayload。
func (kb *KeyBook) Verify(m *message.Message) error {
	if !m.IsSigned() {
		return ErrUnsigned
	}
	pub := m.PublicKey()
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key length %d", ErrInvalidSignature, len(pub))
	}

	sender := m.Sender().ID
	if known, ok := kb.keys.Get(sender); !ok || !bytes.Equal(known, pub) {
		if PeerIDFromPublicKey(pub) != sender {
			return ErrKeyMismatch
		}
	}

	if !ed25519.Verify(pub, message.SigningPayload(m), m.Signature()) {
		return ErrInvalidSignature
	}
	kb.keys.Add(sender, pub)
	return nil
}
