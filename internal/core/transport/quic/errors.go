package quic

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("quic: transport closed")

	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("quic: transport already started")

	// ErrBroadcastUnsupported 流传输不支持广播
	ErrBroadcastUnsupported = errors.New("quic: broadcast unsupported on stream transport")

	// ErrFrameTooLarge 帧超过上限
	ErrFrameTooLarge = errors.New("quic: frame too large")

	// ErrNoPrivateKey 未提供节点私钥
	ErrNoPrivateKey = errors.New("quic: private key is required")
)
