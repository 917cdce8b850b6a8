package connmgr

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
	"github.com/dep2p/go-handshake/pkg/types"
)

var logger = log.Logger("core/connmgr")

// ============================================================================
//                              Provider 实现
// ============================================================================

// Provider 基于信号量的连接资源提供者
type Provider struct {
	sems map[types.TransportKind]*semaphore.Weighted

	// closeCh 关闭时 close，用于唤醒阻塞中的 Acquire
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	inUse [3]atomic.Int64
}

// 确保实现接口
var _ interfaces.ConnectionProvider = (*Provider)(nil)

// New 创建连接资源提供者
func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Provider{
		sems: map[types.TransportKind]*semaphore.Weighted{
			types.TransportDatagram: semaphore.NewWeighted(cfg.MaxDatagram),
			types.TransportStream:   semaphore.NewWeighted(cfg.MaxStream),
		},
		closeCh: make(chan struct{}),
	}, nil
}

// Acquire 借出一个传输许可
//
// 许可耗尽时阻塞，直到有许可归还、ctx 结束或提供者关闭。
func (p *Provider) Acquire(ctx context.Context, kind types.TransportKind) (interfaces.ConnectionHandle, error) {
	if p.closed.Load() {
		return nil, ErrProviderClosed
	}
	sem, ok := p.sems[kind]
	if !ok {
		return nil, types.ErrUnknownTransport
	}

	// 关闭时取消等待
	acqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.closeCh:
			cancel()
		case <-acqCtx.Done():
		}
	}()

	if err := sem.Acquire(acqCtx, 1); err != nil {
		if p.closed.Load() {
			return nil, ErrProviderClosed
		}
		return nil, err
	}
	if p.closed.Load() {
		sem.Release(1)
		return nil, ErrProviderClosed
	}

	p.inUse[kind].Add(1)
	return &handle{provider: p, kind: kind}, nil
}

// InUse 返回指定传输类型当前借出的许可数
func (p *Provider) InUse(kind types.TransportKind) int64 {
	if !kind.Valid() {
		return 0
	}
	return p.inUse[kind].Load()
}

// Close 关闭提供者
//
// 之后的 Acquire 返回 ErrProviderClosed，已借出的句柄仍可正常 Release。
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.closeCh)
		logger.Debug("连接资源提供者已关闭",
			"datagramInUse", p.InUse(types.TransportDatagram),
			"streamInUse", p.InUse(types.TransportStream))
	})
	return nil
}

func (p *Provider) release(kind types.TransportKind) {
	p.inUse[kind].Add(-1)
	p.sems[kind].Release(1)
}

// ============================================================================
//                              句柄
// ============================================================================

type handle struct {
	provider *Provider
	kind     types.TransportKind
	once     sync.Once
}

func (h *handle) Transport() types.TransportKind {
	return h.kind
}

// Release 归还许可（幂等）
func (h *handle) Release() {
	h.once.Do(func() {
		h.provider.release(h.kind)
	})
}
