package interfaces

import (
	"context"
	"net/netip"

	"github.com/dep2p/go-handshake/pkg/types"
)

// ============================================================================
//                              传输抽象
// ============================================================================

// Responder 入站帧的回复通道
//
// 每个入站请求必须恰好调用一次 Reply 或 Close。
// 数据报传输的 Reply 向来源地址写回一个数据报；流传输在同一条流上写回。
type Responder interface {
	// Reply 发送回复帧
	Reply(ctx context.Context, data []byte) error

	// Close 不回复，释放通道
	Close() error
}

// Inbound 传输层交付的一个入站帧
type Inbound struct {
	// Data 编码后的消息
	Data []byte

	// From 传输层观察到的来源地址
	From netip.AddrPort

	// Kind 到达的传输类型
	Kind types.TransportKind

	// Responder 回复通道（出站请求在流上收到的回复为 nil）
	Responder Responder
}

// InboundHandler 入站帧处理函数
//
// 在传输的读循环中被调用，实现不应长时间阻塞。
type InboundHandler func(Inbound)

// Transport 握手消息的传输
type Transport interface {
	// Kind 返回传输类型
	Kind() types.TransportKind

	// Start 开始接收入站帧
	Start(handler InboundHandler) error

	// Send 向 to 发送一帧
	//
	// expectReply 为 true 时，流传输会在同一条流上等待回复并交付给 handler。
	Send(ctx context.Context, to netip.AddrPort, data []byte, expectReply bool) error

	// Broadcast 向本地网段广播一帧（仅数据报传输支持）
	Broadcast(ctx context.Context, port uint16, data []byte) error

	// LocalAddr 返回实际监听地址
	LocalAddr() netip.AddrPort

	// Close 关闭传输
	Close() error
}
