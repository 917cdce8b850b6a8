package mocks

import (
	"context"
	"net/netip"
	"sync"

	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/types"
)

// SentFrame 一次发送记录
type SentFrame struct {
	To          netip.AddrPort
	Data        []byte
	ExpectReply bool
}

// BroadcastFrame 一次广播记录
type BroadcastFrame struct {
	Port uint16
	Data []byte
}

// MockTransport 模拟 Transport 接口实现
type MockTransport struct {
	KindValue types.TransportKind
	Addr      netip.AddrPort

	// 可覆盖的方法
	StartFunc     func(handler interfaces.InboundHandler) error
	SendFunc      func(ctx context.Context, to netip.AddrPort, data []byte, expectReply bool) error
	BroadcastFunc func(ctx context.Context, port uint16, data []byte) error
	CloseFunc     func() error

	mu         sync.Mutex
	handler    interfaces.InboundHandler
	sent       []SentFrame
	broadcasts []BroadcastFrame
	closeCalls int
	sentCh     chan SentFrame
}

// NewMockTransport 创建 MockTransport
func NewMockTransport(kind types.TransportKind, addr netip.AddrPort) *MockTransport {
	return &MockTransport{
		KindValue: kind,
		Addr:      addr,
		sentCh:    make(chan SentFrame, 64),
	}
}

// Kind 返回传输类型
func (m *MockTransport) Kind() types.TransportKind {
	return m.KindValue
}

// Start 保存入站处理函数
func (m *MockTransport) Start(handler interfaces.InboundHandler) error {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
	if m.StartFunc != nil {
		return m.StartFunc(handler)
	}
	return nil
}

// Send 记录发送
func (m *MockTransport) Send(ctx context.Context, to netip.AddrPort, data []byte, expectReply bool) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, data, expectReply); err != nil {
			return err
		}
	}
	frame := SentFrame{To: to, Data: append([]byte(nil), data...), ExpectReply: expectReply}
	m.mu.Lock()
	m.sent = append(m.sent, frame)
	m.mu.Unlock()
	select {
	case m.sentCh <- frame:
	default:
	}
	return nil
}

// Broadcast 记录广播
func (m *MockTransport) Broadcast(ctx context.Context, port uint16, data []byte) error {
	if m.BroadcastFunc != nil {
		if err := m.BroadcastFunc(ctx, port, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.broadcasts = append(m.broadcasts, BroadcastFrame{Port: port, Data: append([]byte(nil), data...)})
	m.mu.Unlock()
	return nil
}

// LocalAddr 返回本地地址
func (m *MockTransport) LocalAddr() netip.AddrPort {
	return m.Addr
}

// Close 记录关闭
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closeCalls++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Deliver 模拟一个入站帧
func (m *MockTransport) Deliver(in interfaces.Inbound) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if in.Kind == 0 {
		in.Kind = m.KindValue
	}
	if h != nil {
		h(in)
	}
}

// Sent 返回发送记录副本
func (m *MockTransport) Sent() []SentFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentFrame(nil), m.sent...)
}

// SentCh 每次成功发送后收到一条记录
func (m *MockTransport) SentCh() <-chan SentFrame {
	return m.sentCh
}

// Broadcasts 返回广播记录副本
func (m *MockTransport) Broadcasts() []BroadcastFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BroadcastFrame(nil), m.broadcasts...)
}

// CloseCalls 返回 Close 调用次数
func (m *MockTransport) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// ============================================================================
//                              MockResponder
// ============================================================================

// MockResponder 模拟 Responder 接口实现
type MockResponder struct {
	ReplyFunc func(ctx context.Context, data []byte) error

	mu         sync.Mutex
	replies    [][]byte
	closeCalls int
	doneCh     chan struct{}
	doneOnce   sync.Once
}

// NewMockResponder 创建 MockResponder
func NewMockResponder() *MockResponder {
	return &MockResponder{doneCh: make(chan struct{})}
}

// Reply 记录回复
func (r *MockResponder) Reply(ctx context.Context, data []byte) error {
	defer r.doneOnce.Do(func() { close(r.doneCh) })
	if r.ReplyFunc != nil {
		if err := r.ReplyFunc(ctx, data); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.replies = append(r.replies, append([]byte(nil), data...))
	r.mu.Unlock()
	return nil
}

// Close 记录关闭
func (r *MockResponder) Close() error {
	r.mu.Lock()
	r.closeCalls++
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.doneCh) })
	return nil
}

// Done Reply 或 Close 被调用后关闭
func (r *MockResponder) Done() <-chan struct{} {
	return r.doneCh
}

// Replies 返回回复记录副本
func (r *MockResponder) Replies() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.replies...)
}

// CloseCalls 返回 Close 调用次数
func (r *MockResponder) CloseCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeCalls
}
