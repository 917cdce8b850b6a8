package handshake

import "errors"

var (
	// ErrNoProvider 没有可用的连接资源提供者
	ErrNoProvider = errors.New("handshake: no connection provider")

	// ErrNoSender 未设置传输发送接口
	ErrNoSender = errors.New("handshake: no sender")

	// ErrProtocolMismatch 通过了分发谓词但类型组合无法识别
	ErrProtocolMismatch = errors.New("handshake: protocol mismatch")
)
