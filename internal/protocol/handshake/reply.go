package handshake

import (
	"context"
	"time"

	"github.com/dep2p/go-handshake/internal/core/dispatcher"
	"github.com/dep2p/go-handshake/internal/core/future"
	"github.com/dep2p/go-handshake/internal/core/message"
	"github.com/dep2p/go-handshake/pkg/types"
)

// Outcome 回复构造结果
type Outcome = dispatcher.Outcome

// InboundRequest 入站请求
type InboundRequest = dispatcher.InboundRequest

// 确保实现接口
var _ dispatcher.Handler = (*Service)(nil)

// replyHandler 某种请求的回复构造函数
type replyHandler func(s *Service, ctx context.Context, req InboundRequest, done func(Outcome))

// replyHandlers 按 RequestKind 分派，每个种类必须有处理函数
var replyHandlers = [kindCount]replyHandler{
	KindSimplePing:    (*Service).replyPlain,
	KindFireAndForget: (*Service).replyPlain,
	KindDiscovery:     (*Service).replyDiscovery,
	KindProbe:         (*Service).replyProbe,
}

// CheckMessage 是否为握手请求
//
// 类型 ∈ {REQUEST_FF_1, REQUEST_1, REQUEST_2, REQUEST_3} 且命令为 PING。
func (s *Service) CheckMessage(m *message.Message) bool {
	if m.Command() != message.CommandPing {
		return false
	}
	_, ok := KindOf(m.Type())
	return ok
}

// HandleRequest 构造回复，结果通过 done 交付
//
// 普通 ping 开启延迟时 done 在延迟结束后从计时器回调中调用。
func (s *Service) HandleRequest(ctx context.Context, req InboundRequest, done func(Outcome)) {
	m := req.Message
	kind, ok := KindOf(m.Type())
	if !ok || m.Command() != message.CommandPing {
		logger.Warn("无法识别的握手请求", "command", m.Command().String(), "type", m.Type().String())
		done(dispatcher.Suppressed(dispatcher.ReasonProtocolMismatch))
		return
	}
	s.notify(kind, m.Sender())
	replyHandlers[kind](s, ctx, req, done)
}

// RequestObserver 入站握手请求观察者
//
// from 为传输层观察到的发送方地址。回调在处理请求的 goroutine 中执行，不应阻塞。
type RequestObserver func(kind RequestKind, from types.PeerAddress)

// Observe 注册入站请求观察者
func (s *Service) Observe(fn RequestObserver) {
	if fn == nil {
		return
	}
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

func (s *Service) notify(kind RequestKind, from types.PeerAddress) {
	s.obsMu.RLock()
	observers := s.observers
	s.obsMu.RUnlock()
	for _, fn := range observers {
		fn(kind, from)
	}
}

// Reply 同步构造回复
func (s *Service) Reply(ctx context.Context, req InboundRequest) Outcome {
	ch := make(chan Outcome, 1)
	s.HandleRequest(ctx, req, func(o Outcome) { ch <- o })
	select {
	case o := <-ch:
		return o
	case <-ctx.Done():
		return dispatcher.Failed(ctx.Err())
	}
}

// ============================================================================
//                              各类回复
// ============================================================================

// replyProbe 回复 OK，并向发送方补发一个即发即弃 ping
func (s *Service) replyProbe(ctx context.Context, req InboundRequest, done func(Outcome)) {
	m := req.Message
	reply, err := s.signReply(m, s.okFor(m))
	if err != nil {
		done(dispatcher.Failed(err))
		return
	}

	kind := types.TransportStream
	if m.IsDatagram() {
		kind = types.TransportDatagram
	}
	provider := req.Provider
	if provider == nil {
		provider = s.provider
	}

	logger.Debug("回复探测，补发即发即弃 ping", "to", m.Sender().String(), "kind", kind.String())
	fire := s.FireAndForget(ctx, m.Sender(), kind, provider)
	fire.OnComplete(func(r *future.Response) {
		if err := r.Err(); err != nil {
			logger.Warn("探测补发失败", "to", m.Sender().String(), "error", err)
		}
	})

	done(dispatcher.Reply(reply))
}

// replyDiscovery 回复 OK，邻居列表为观察到的发送方地址
func (s *Service) replyDiscovery(_ context.Context, req InboundRequest, done func(Outcome)) {
	m := req.Message
	logger.Debug("回复发现请求", "observed", m.Sender().String())

	reply, err := s.signReply(m, s.okFor(m).WithNeighbors(m.Sender()))
	if err != nil {
		done(dispatcher.Failed(err))
		return
	}
	done(dispatcher.Reply(reply))
}

// replyPlain 普通 ping 与即发即弃 ping
func (s *Service) replyPlain(_ context.Context, req InboundRequest, done func(Outcome)) {
	m := req.Message
	if s.isSelfBroadcast(m) {
		done(dispatcher.Suppressed(dispatcher.ReasonSelfBroadcast))
		return
	}
	p := &plainReply{s: s, req: m, done: done}
	p.run()
}

func (s *Service) isSelfBroadcast(m *message.Message) bool {
	return m.Sender().ID == s.self.AdvertisedAddress().ID && m.Recipient().ID.IsZero()
}

// okFor 构造未签名的 OK 回复，关联 ID 与请求相同
func (s *Service) okFor(m *message.Message) *message.Message {
	return message.New(message.CommandPing, message.TypeOK, s.self.AdvertisedAddress(), m.Sender()).
		WithID(m.ID()).
		WithTransport(m.Transport())
}

// signReply 请求带签名时签名回复
func (s *Service) signReply(req, reply *message.Message) (*message.Message, error) {
	signed, err := message.SignIfRequested(reply, s.signer, req.IsSigned())
	if err != nil {
		return nil, signingFailure(err)
	}
	return signed, nil
}

// ============================================================================
//                              普通 ping 的两阶段回复
// ============================================================================

type replyStage int

const (
	stageDelayPending replyStage = iota
	stageReplyDecided
)

type plainReply struct {
	s     *Service
	req   *message.Message
	done  func(Outcome)
	stage replyStage
}

// run 推进状态；延迟由计时器回调再次进入
func (p *plainReply) run() {
	switch p.stage {
	case stageDelayPending:
		p.stage = stageReplyDecided
		if p.s.replyDelay.Load() {
			p.s.clock.AfterFunc(time.Duration(p.s.delayInterval.Load()), p.run)
			return
		}
		p.run()

	case stageReplyDecided:
		p.done(p.s.decidePlain(p.req))
	}
}

func (s *Service) decidePlain(m *message.Message) Outcome {
	if !s.replyEnabled.Load() {
		logger.Debug("不回复普通 ping", "from", m.Sender().String())
		return dispatcher.Suppressed(dispatcher.ReasonDisabled)
	}
	reply, err := s.signReply(m, s.okFor(m))
	if err != nil {
		return dispatcher.Failed(err)
	}
	return dispatcher.Reply(reply)
}
