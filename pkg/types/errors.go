package types

import "errors"

// 公共错误定义
var (
	// ErrInvalidPeerID 无效的节点ID
	ErrInvalidPeerID = errors.New("invalid peer id: must be 20 bytes (base58 or hex)")

	// ErrInvalidAddress 无效的网络地址
	ErrInvalidAddress = errors.New("invalid peer address")

	// ErrUnknownTransport 未知的传输类型
	ErrUnknownTransport = errors.New("unknown transport kind")
)
