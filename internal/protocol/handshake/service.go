package handshake

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-handshake/internal/core/future"
	"github.com/dep2p/go-handshake/internal/core/identity"
	"github.com/dep2p/go-handshake/internal/core/message"
	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
	"github.com/dep2p/go-handshake/pkg/types"
)

var logger = log.Logger("protocol/handshake")

// Sender 传输发送接口
//
// resp 携带请求消息与本次调用绑定的 provider；实现负责完成 resp 并原样返回。
type Sender interface {
	SendAndWaitForReply(ctx context.Context, resp *future.Response, handle interfaces.ConnectionHandle) *future.Response
	SendNoWait(ctx context.Context, resp *future.Response, handle interfaces.ConnectionHandle) *future.Response
	SendBroadcast(ctx context.Context, resp *future.Response, handle interfaces.ConnectionHandle) *future.Response
}

// Params 服务依赖
type Params struct {
	Config Config
	Sender Sender
	Signer interfaces.Signer
	Self   interfaces.AddressProvider

	// Provider 默认连接资源提供者，调用未指定 provider 时使用
	Provider interfaces.ConnectionProvider

	// Clock 可为 nil（使用真实时钟）
	Clock clock.Clock
}

// Service 握手 RPC 服务
type Service struct {
	sender   Sender
	signer   interfaces.Signer
	self     interfaces.AddressProvider
	provider interfaces.ConnectionProvider
	clock    clock.Clock

	delayInterval atomic.Int64
	replyEnabled  atomic.Bool
	replyDelay    atomic.Bool
	signRequests  bool

	obsMu     sync.RWMutex
	observers []RequestObserver
}

// New 创建握手服务
func New(p Params) *Service {
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	s := &Service{
		sender:       p.Sender,
		signer:       p.Signer,
		self:         p.Self,
		provider:     p.Provider,
		clock:        p.Clock,
		signRequests: p.Config.SignRequests,
	}
	s.replyEnabled.Store(p.Config.ReplyEnabled)
	s.replyDelay.Store(p.Config.ReplyDelay)
	s.delayInterval.Store(int64(p.Config.DelayInterval))
	return s
}

// SetReplyEnabled 运行时切换是否回复普通 ping
func (s *Service) SetReplyEnabled(enabled bool) {
	s.replyEnabled.Store(enabled)
}

// SetReplyDelay 运行时切换普通 ping 回复前是否延迟
func (s *Service) SetReplyDelay(delay bool) {
	s.replyDelay.Store(delay)
}

// ============================================================================
//                              出站操作
// ============================================================================

type sendMode int

const (
	modeWaitReply sendMode = iota
	modeNoWait
	modeBroadcast
)

// Ping 发送普通 ping（REQUEST_1），收到关联 ID 匹配的 OK 时完成
func (s *Service) Ping(ctx context.Context, remote types.PeerAddress, kind types.TransportKind, provider interfaces.ConnectionProvider) *future.Response {
	return s.send(ctx, s.NewRequest(KindSimplePing, remote), kind, provider, modeWaitReply)
}

// FireAndForget 发送即发即弃 ping（REQUEST_FF_1），本地发送被接受即完成
func (s *Service) FireAndForget(ctx context.Context, remote types.PeerAddress, kind types.TransportKind, provider interfaces.ConnectionProvider) *future.Response {
	return s.send(ctx, s.NewRequest(KindFireAndForget, remote), kind, provider, modeNoWait)
}

// Discover 发送发现 ping（REQUEST_2）
//
// 请求的邻居列表只包含本节点公布的地址；OK 回复的邻居列表是对端观察到的
// 本节点地址，通过 Response.Reply().Neighbors() 原样取得。
func (s *Service) Discover(ctx context.Context, remote types.PeerAddress, kind types.TransportKind, provider interfaces.ConnectionProvider) *future.Response {
	return s.send(ctx, s.NewRequest(KindDiscovery, remote), kind, provider, modeWaitReply)
}

// Probe 发送探测 ping（REQUEST_3）
//
// 对发送方而言与 Ping 相同；对端会额外向本节点发一个即发即弃 ping。
// 本次借用的 provider 可通过 Response.Provider() 取得。
func (s *Service) Probe(ctx context.Context, remote types.PeerAddress, kind types.TransportKind, provider interfaces.ConnectionProvider) *future.Response {
	return s.send(ctx, s.NewRequest(KindProbe, remote), kind, provider, modeWaitReply)
}

// PingBroadcast 在本地网段广播普通 ping
//
// 接收方为零标识，目标端口为 port；第一个 OK 回复完成响应。
func (s *Service) PingBroadcast(ctx context.Context, port uint16, provider interfaces.ConnectionProvider) *future.Response {
	req := s.NewRequest(KindSimplePing, types.PeerAddress{UDPPort: port})
	return s.send(ctx, req, types.TransportDatagram, provider, modeBroadcast)
}

// NewRequest 构造某种类的未签名请求
//
// 发现 ping 的邻居列表携带本节点公布的地址。
func (s *Service) NewRequest(kind RequestKind, remote types.PeerAddress) *message.Message {
	self := s.self.AdvertisedAddress()
	req := message.New(message.CommandPing, kind.Type(), self, remote)
	if kind == KindDiscovery {
		req = req.WithNeighbors(self)
	}
	return req
}

// send 借用连接资源完成一次发送，返回前归还资源
func (s *Service) send(ctx context.Context, req *message.Message, kind types.TransportKind, provider interfaces.ConnectionProvider, mode sendMode) *future.Response {
	if provider == nil {
		provider = s.provider
	}
	req = req.WithTransport(kind)

	if s.signRequests {
		signed, err := message.Sign(req, s.signer)
		if err != nil {
			return future.Failed(req, provider, signingFailure(err))
		}
		req = signed
	}
	if provider == nil {
		return future.Failed(req, nil, future.TransportFailure(ErrNoProvider))
	}
	if s.sender == nil {
		return future.Failed(req, provider, future.TransportFailure(ErrNoSender))
	}

	handle, err := provider.Acquire(ctx, kind)
	if err != nil {
		return future.Failed(req, provider, future.TransportFailure(err))
	}
	defer handle.Release()

	resp := future.New(req, provider)
	switch mode {
	case modeNoWait:
		return s.sender.SendNoWait(ctx, resp, handle)
	case modeBroadcast:
		return s.sender.SendBroadcast(ctx, resp, handle)
	default:
		return s.sender.SendAndWaitForReply(ctx, resp, handle)
	}
}

func signingFailure(err error) error {
	return fmt.Errorf("%w: %w", identity.ErrSigningFailed, err)
}
