package types

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/mr-tron/base58"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// PeerIDLen PeerID 字节长度（160 位）
const PeerIDLen = 20

// PeerID 节点唯一标识符
//
// 由公钥派生（公钥 BLAKE3 摘要的前 20 字节），按值比较。
// 零值 ZeroPeerID 同时用作广播标识。
//
// 外部表示格式：
//   - String(): Base58 编码（用户可读、可分享）
//   - ShortString(): Base58 前缀（日志简短标识）
type PeerID [PeerIDLen]byte

// ZeroPeerID 零值节点ID（广播标识）
var ZeroPeerID PeerID

// String 返回 PeerID 的 Base58 字符串表示
func (id PeerID) String() string {
	if id.IsZero() {
		return ""
	}
	return base58.Encode(id[:])
}

// ShortString 返回 PeerID 的短字符串表示（Base58 前 8 个字符）
func (id PeerID) ShortString() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Hex 返回十六进制表示
func (id PeerID) Hex() string {
	return hex.EncodeToString(id[:])
}

// Bytes 返回 PeerID 的字节切片
func (id PeerID) Bytes() []byte {
	return id[:]
}

// Equal 比较两个 PeerID 是否相等
func (id PeerID) Equal(other PeerID) bool {
	return id == other
}

// IsZero 检查是否为零值（广播）标识
func (id PeerID) IsZero() bool {
	return id == ZeroPeerID
}

// PeerIDFromBytes 从字节切片创建 PeerID
func PeerIDFromBytes(b []byte) (PeerID, error) {
	if len(b) != PeerIDLen {
		return ZeroPeerID, ErrInvalidPeerID
	}
	var id PeerID
	copy(id[:], b)
	return id, nil
}

// ParsePeerID 从字符串解析 PeerID
//
// 优先按 40 字符十六进制解析，否则按 Base58 解析。
func ParsePeerID(s string) (PeerID, error) {
	if s == "" {
		return ZeroPeerID, ErrInvalidPeerID
	}
	if len(s) == PeerIDLen*2 {
		if b, err := hex.DecodeString(s); err == nil {
			return PeerIDFromBytes(b)
		}
	}
	b, err := base58.Decode(s)
	if err != nil {
		return ZeroPeerID, ErrInvalidPeerID
	}
	return PeerIDFromBytes(b)
}

// RandomPeerID 生成随机 PeerID（主要用于测试）
func RandomPeerID() PeerID {
	var id PeerID
	if _, err := rand.Read(id[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return id
}
