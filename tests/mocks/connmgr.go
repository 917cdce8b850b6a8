package mocks

import (
	"context"
	"sync"

	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/types"
)

// MockProvider 模拟 ConnectionProvider 接口实现
type MockProvider struct {
	// Name 便于在测试中区分不同实例
	Name string

	AcquireFunc func(ctx context.Context, kind types.TransportKind) (interfaces.ConnectionHandle, error)

	mu       sync.Mutex
	acquired []types.TransportKind
	handles  []*MockHandle
}

// NewMockProvider 创建 MockProvider
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{Name: name}
}

// Acquire 借出一个 MockHandle
func (m *MockProvider) Acquire(ctx context.Context, kind types.TransportKind) (interfaces.ConnectionHandle, error) {
	m.mu.Lock()
	m.acquired = append(m.acquired, kind)
	m.mu.Unlock()

	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, kind)
	}
	h := &MockHandle{Kind: kind}
	m.mu.Lock()
	m.handles = append(m.handles, h)
	m.mu.Unlock()
	return h, nil
}

// Acquired 返回 Acquire 调用记录
func (m *MockProvider) Acquired() []types.TransportKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.TransportKind(nil), m.acquired...)
}

// Handles 返回借出的句柄
func (m *MockProvider) Handles() []*MockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockHandle(nil), m.handles...)
}

// MockHandle 模拟 ConnectionHandle 接口实现
type MockHandle struct {
	Kind types.TransportKind

	mu       sync.Mutex
	releases int
}

// NewMockHandle 创建 MockHandle
func NewMockHandle(kind types.TransportKind) *MockHandle {
	return &MockHandle{Kind: kind}
}

// Transport 返回传输类型
func (h *MockHandle) Transport() types.TransportKind {
	return h.Kind
}

// Release 记录归还
func (h *MockHandle) Release() {
	h.mu.Lock()
	h.releases++
	h.mu.Unlock()
}

// Releases 返回 Release 调用次数
func (h *MockHandle) Releases() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.releases
}
