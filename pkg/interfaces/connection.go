package interfaces

import (
	"context"

	"github.com/dep2p/go-handshake/pkg/types"
)

// ConnectionHandle 一次发送操作借用的传输资源
//
// 握手层只在发起发送的调用期间持有句柄，调用返回前必须 Release。
// Release 必须是幂等的。
type ConnectionHandle interface {
	// Transport 返回句柄对应的传输类型
	Transport() types.TransportKind

	// Release 归还资源
	Release()
}

// ConnectionProvider 连接资源提供者
//
// 实现必须是并发安全的：多个并发的 ping/probe 调用会同时借用资源，
// 握手层不做额外加锁。
type ConnectionProvider interface {
	// Acquire 为一次发送借出指定传输类型的资源
	Acquire(ctx context.Context, kind types.TransportKind) (ConnectionHandle, error)
}
