// Package identity 实现节点身份管理
package identity

import "errors"

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrInvalidKeySize 无效的密钥大小
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrSigningFailed 签名失败
	ErrSigningFailed = errors.New("signing failed")

	// ErrUnsigned 消息未签名
	ErrUnsigned = errors.New("message is not signed")

	// ErrInvalidSignature 无效的签名
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrKeyMismatch 公钥与发送方 PeerID 不一致
	ErrKeyMismatch = errors.New("public key does not match sender id")
)
