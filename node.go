package handshake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/internal/core/connmgr"
	"github.com/dep2p/go-handshake/internal/core/dispatcher"
	"github.com/dep2p/go-handshake/internal/core/future"
	"github.com/dep2p/go-handshake/internal/core/identity"
	"github.com/dep2p/go-handshake/internal/core/metrics"
	"github.com/dep2p/go-handshake/internal/core/transport"
	hsproto "github.com/dep2p/go-handshake/internal/protocol/handshake"
	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
	"github.com/dep2p/go-handshake/pkg/types"
)

var logger = log.Logger("handshake/node")

// Response 出站请求的待决响应
type Response = future.Response

// RequestKind 握手请求种类
type RequestKind = hsproto.RequestKind

// 请求种类
const (
	KindSimplePing    = hsproto.KindSimplePing
	KindFireAndForget = hsproto.KindFireAndForget
	KindDiscovery     = hsproto.KindDiscovery
	KindProbe         = hsproto.KindProbe
)

// defaultStopTimeout Close 等待各模块停止的上限
const defaultStopTimeout = 10 * time.Second

// Node 握手节点
//
// 持有两种传输、调度器与握手服务；所有出站操作立即返回 *Response。
type Node struct {
	config *nodeConfig
	app    *fx.App

	// 由 Fx 注入
	service    *hsproto.Service
	dispatcher *dispatcher.Dispatcher
	identity   *identity.Identity
	self       interfaces.AddressProvider
	connmgr    *connmgr.Provider
	transports *transport.Set
	metrics    *metrics.Collector

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建节点
//
// 端口在此时绑定，但入站处理在 Start 之后才开始。
func New(_ context.Context, opts ...Option) (*Node, error) {
	cfg := newNodeConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	level, err := log.ParseLevel(cfg.config.Log.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	node := &Node{config: cfg}
	node.app, err = buildFxApp(cfg, node)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return node, nil
}

// Start 快捷启动函数
//
// 等价于 New() + Start()。
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	node, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := node.Start(ctx); err != nil {
		_ = node.Close()
		return nil, err
	}
	return node, nil
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动节点，开始接收入站消息
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrNodeClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}
	if err := n.app.Start(ctx); err != nil {
		return fmt.Errorf("start node: %w", err)
	}
	n.started = true
	logger.Info("节点已启动", "id", n.ID().ShortString(), "addr", n.Addr().String())
	return nil
}

// Stop 停止节点
//
// 未完成的请求以 ErrTransport 失败。可重复调用。
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true

	if n.started {
		return n.app.Stop(ctx)
	}
	// 从未启动：生命周期钩子不会运行，直接释放已绑定的端口
	return multierr.Combine(n.dispatcher.Close(), n.connmgr.Close())
}

// Close 关闭节点
func (n *Node) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultStopTimeout)
	defer cancel()
	return n.Stop(ctx)
}

func (n *Node) running() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case n.closed:
		return ErrNodeClosed
	case !n.started:
		return ErrNotStarted
	}
	return nil
}

// ============================================================================
//                              节点信息
// ============================================================================

// ID 返回节点标识
func (n *Node) ID() types.PeerID {
	return n.identity.ID()
}

// Addr 返回本节点对外公布的地址
func (n *Node) Addr() types.PeerAddress {
	return n.self.AdvertisedAddress()
}

// Config 返回节点配置副本
func (n *Node) Config() *config.Config {
	return n.config.config.Clone()
}

// PendingCount 返回等待回复的请求数
func (n *Node) PendingCount() int {
	return n.dispatcher.PendingCount()
}

// Metrics 返回指标注册表，未启用指标时返回 nil
func (n *Node) Metrics() prometheus.Gatherer {
	if n.metrics == nil {
		return nil
	}
	return n.metrics.Registry()
}

// SetReplyEnabled 运行时切换是否回复普通 ping
func (n *Node) SetReplyEnabled(enabled bool) {
	n.service.SetReplyEnabled(enabled)
}

// SetReplyDelay 运行时切换普通 ping 回复前是否延迟
func (n *Node) SetReplyDelay(delay bool) {
	n.service.SetReplyDelay(delay)
}

// OnRequest 注册入站握手请求回调
//
// 探测方可据此确认对端补发的即发即弃 ping 已到达。回调不应阻塞。
func (n *Node) OnRequest(fn func(kind RequestKind, from types.PeerAddress)) {
	n.service.Observe(fn)
}

// ============================================================================
//                              出站操作
// ============================================================================

// Ping 发送普通 ping，收到 OK 时完成
func (n *Node) Ping(ctx context.Context, remote types.PeerAddress, kind types.TransportKind, opts ...CallOption) *Response {
	if err := n.running(); err != nil {
		return n.notRunning(KindSimplePing, remote, err)
	}
	o := applyCallOptions(opts)
	return n.service.Ping(ctx, remote, kind, o.provider)
}

// FireAndForget 发送即发即弃 ping，本地发送被接受即完成
func (n *Node) FireAndForget(ctx context.Context, remote types.PeerAddress, kind types.TransportKind, opts ...CallOption) *Response {
	if err := n.running(); err != nil {
		return n.notRunning(KindFireAndForget, remote, err)
	}
	o := applyCallOptions(opts)
	return n.service.FireAndForget(ctx, remote, kind, o.provider)
}

// Discover 发送发现 ping
//
// 成功时 Reply().Neighbors() 只含一个地址：对端观察到的本节点地址。
func (n *Node) Discover(ctx context.Context, remote types.PeerAddress, kind types.TransportKind, opts ...CallOption) *Response {
	if err := n.running(); err != nil {
		return n.notRunning(KindDiscovery, remote, err)
	}
	o := applyCallOptions(opts)
	return n.service.Discover(ctx, remote, kind, o.provider)
}

// Probe 发送探测 ping
//
// 对端回复 OK 的同时向本节点发一个即发即弃 ping，
// 本节点据此判断自己能否被对端主动连通。
func (n *Node) Probe(ctx context.Context, remote types.PeerAddress, kind types.TransportKind, opts ...CallOption) *Response {
	if err := n.running(); err != nil {
		return n.notRunning(KindProbe, remote, err)
	}
	o := applyCallOptions(opts)
	return n.service.Probe(ctx, remote, kind, o.provider)
}

// PingBroadcast 在本地网段广播普通 ping，第一个回复完成响应
func (n *Node) PingBroadcast(ctx context.Context, port uint16, opts ...CallOption) *Response {
	if err := n.running(); err != nil {
		return n.notRunning(KindSimplePing, types.PeerAddress{UDPPort: port}, err)
	}
	o := applyCallOptions(opts)
	return n.service.PingBroadcast(ctx, port, o.provider)
}

// notRunning 返回已失败的响应，Request() 仍是未发送的请求
func (n *Node) notRunning(kind RequestKind, remote types.PeerAddress, err error) *Response {
	return future.Failed(n.service.NewRequest(kind, remote), nil, future.TransportFailure(err))
}
