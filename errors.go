package handshake

import (
	"errors"

	"github.com/dep2p/go-handshake/internal/core/future"
	"github.com/dep2p/go-handshake/internal/core/identity"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 节点生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("node closed")

	// ────────────────────────────────────────────────────────────────────────
	// 请求失败原因（Response.Err 可用 errors.Is 匹配）
	// ────────────────────────────────────────────────────────────────────────

	// ErrTransport 发送无法发起或连接资源无法获取
	ErrTransport = future.ErrTransport

	// ErrTimeout 超时窗口内未收到回复
	ErrTimeout = future.ErrTimeout

	// ErrCancelled 请求被取消
	ErrCancelled = future.ErrCancelled

	// ErrSigningFailed 签名失败
	ErrSigningFailed = identity.ErrSigningFailed
)
