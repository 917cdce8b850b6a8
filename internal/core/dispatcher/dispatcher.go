package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-handshake/internal/core/future"
	"github.com/dep2p/go-handshake/internal/core/identity"
	"github.com/dep2p/go-handshake/internal/core/message"
	"github.com/dep2p/go-handshake/internal/core/metrics"
	"github.com/dep2p/go-handshake/internal/core/transport"
	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
	"github.com/dep2p/go-handshake/pkg/types"
)

var logger = log.Logger("core/dispatcher")

// Config 调度器配置
type Config struct {
	// Timeout 等待回复的超时，也用作写回复的超时
	Timeout time.Duration

	// InboundRate 每秒允许处理的入站请求数（0 = 不限）
	InboundRate float64

	// InboundBurst 入站请求突发上限
	InboundBurst int
}

// Params 调度器依赖
type Params struct {
	Config     Config
	Transports *transport.Set

	// Provider 入站请求到达路径对应的连接资源提供者
	Provider interfaces.ConnectionProvider

	// KeyBook 入站签名校验，可为 nil（不校验）
	KeyBook *identity.KeyBook

	// Metrics 可为 nil
	Metrics *metrics.Collector

	// Clock 可为 nil（使用真实时钟）
	Clock clock.Clock
}

type pendingEntry struct {
	resp  *future.Response
	timer *clock.Timer
}

// Dispatcher 握手消息调度器
type Dispatcher struct {
	cfg        Config
	transports *transport.Set
	provider   interfaces.ConnectionProvider
	keyBook    *identity.KeyBook
	metrics    *metrics.Collector
	clock      clock.Clock
	limiter    *rate.Limiter

	mu       sync.Mutex
	pending  map[uuid.UUID]*pendingEntry
	handlers []Handler
	started  bool
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New 创建调度器
func New(p Params) *Dispatcher {
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.Transports == nil {
		p.Transports = transport.NewSet()
	}
	d := &Dispatcher{
		cfg:        p.Config,
		transports: p.Transports,
		provider:   p.Provider,
		keyBook:    p.KeyBook,
		metrics:    p.Metrics,
		clock:      p.Clock,
		pending:    make(map[uuid.UUID]*pendingEntry),
	}
	if p.Config.InboundRate > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(p.Config.InboundRate), p.Config.InboundBurst)
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Register 注册入站请求处理器
func (d *Dispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Start 启动所有传输的接收
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	if d.started {
		d.mu.Unlock()
		return ErrAlreadyStarted
	}
	d.started = true
	d.mu.Unlock()

	for _, t := range d.transports.All() {
		if err := t.Start(d.handleInbound); err != nil {
			return err
		}
		logger.Debug("传输开始接收", "kind", t.Kind().String(), "addr", t.LocalAddr().String())
	}
	return nil
}

// PendingCount 返回等待回复的请求数
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// ============================================================================
//                              出站
// ============================================================================

// SendAndWaitForReply 发送请求并等待关联 ID 匹配的回复
//
// resp 携带请求消息与本次调用绑定的 provider。发送失败时 resp 以
// TransportFailure 完成，超时以 future.ErrTimeout 完成。
func (d *Dispatcher) SendAndWaitForReply(ctx context.Context, resp *future.Response, handle interfaces.ConnectionHandle) *future.Response {
	msg := resp.Request()
	t, data, err := d.prepare(msg, handle.Transport())
	if err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}
	if err := msg.Recipient().Validate(handle.Transport()); err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}
	to := msg.Recipient().AddrPort(handle.Transport())
	if err := d.track(resp); err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}

	if err := t.Send(ctx, to, data, true); err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}
	d.metrics.RequestSent(msg.Type().String(), t.Kind().String())
	logger.Debug("请求已发送", "type", msg.Type().String(), "to", to.String(), "id", msg.ID().String())
	return resp
}

// SendNoWait 发送请求，本地发送被接受即以 nil 回复完成
func (d *Dispatcher) SendNoWait(ctx context.Context, resp *future.Response, handle interfaces.ConnectionHandle) *future.Response {
	msg := resp.Request()
	t, data, err := d.prepare(msg, handle.Transport())
	if err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}
	if err := msg.Recipient().Validate(handle.Transport()); err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}
	to := msg.Recipient().AddrPort(handle.Transport())

	if err := t.Send(ctx, to, data, false); err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}
	d.metrics.RequestSent(msg.Type().String(), t.Kind().String())
	resp.Complete(nil)
	return resp
}

// SendBroadcast 向本地网段广播请求，第一个匹配的回复完成 resp
//
// 目标端口取自接收方地址的 UDP 端口。
func (d *Dispatcher) SendBroadcast(ctx context.Context, resp *future.Response, handle interfaces.ConnectionHandle) *future.Response {
	msg := resp.Request()
	if handle.Transport() != types.TransportDatagram {
		resp.Fail(future.TransportFailure(ErrBroadcastNeedsDatagram))
		return resp
	}
	t, data, err := d.prepare(msg, types.TransportDatagram)
	if err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}
	if err := d.track(resp); err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}

	port := msg.Recipient().UDPPort
	if err := t.Broadcast(ctx, port, data); err != nil {
		resp.Fail(future.TransportFailure(err))
		return resp
	}
	d.metrics.RequestSent(msg.Type().String(), t.Kind().String())
	logger.Debug("广播已发送", "port", port, "id", msg.ID().String())
	return resp
}

func (d *Dispatcher) prepare(msg *message.Message, kind types.TransportKind) (interfaces.Transport, []byte, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, nil, ErrDispatcherClosed
	}
	t, ok := d.transports.Get(kind)
	if !ok {
		return nil, nil, ErrNoTransport
	}
	data, err := message.Marshal(msg)
	if err != nil {
		return nil, nil, err
	}
	return t, data, nil
}

// track 登记待决响应并启动超时
//
// 任何方式的完成都会移除登记并停止计时器。
func (d *Dispatcher) track(resp *future.Response) error {
	id := resp.Request().ID()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	if _, dup := d.pending[id]; dup {
		d.mu.Unlock()
		return ErrDuplicateRequest
	}
	entry := &pendingEntry{resp: resp}
	entry.timer = d.clock.AfterFunc(d.cfg.Timeout, func() {
		resp.Fail(future.ErrTimeout)
	})
	d.pending[id] = entry
	d.mu.Unlock()

	d.metrics.PendingAdd(1)
	resp.OnComplete(func(r *future.Response) {
		d.untrack(id, entry, r)
	})
	return nil
}

func (d *Dispatcher) untrack(id uuid.UUID, entry *pendingEntry, r *future.Response) {
	entry.timer.Stop()

	d.mu.Lock()
	if d.pending[id] == entry {
		delete(d.pending, id)
	}
	d.mu.Unlock()

	d.metrics.PendingAdd(-1)
	d.metrics.ResponseCompleted(resultLabel(r.Err()))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, future.ErrTimeout):
		return metrics.ResultTimeout
	case errors.Is(err, future.ErrCancelled):
		return metrics.ResultCancelled
	default:
		return metrics.ResultTransport
	}
}

// ============================================================================
//                              入站
// ============================================================================

// handleInbound 在传输读循环中被调用
func (d *Dispatcher) handleInbound(in interfaces.Inbound) {
	m, err := message.Unmarshal(in.Data)
	if err != nil {
		logger.Warn("丢弃无法解码的消息", "from", in.From.String(), "error", err)
		d.drop(in, metrics.DropMalformed)
		return
	}
	if m.IsSigned() && d.keyBook != nil {
		if err := d.keyBook.Verify(m); err != nil {
			logger.Warn("丢弃签名无效的消息", "from", in.From.String(), "sender", m.Sender().ID.ShortString(), "error", err)
			d.drop(in, metrics.DropBadSignature)
			return
		}
	}
	m = m.WithTransport(in.Kind).WithObservedSender(in.From)

	if m.Type().IsReply() {
		d.completeReply(m)
		if in.Responder != nil {
			_ = in.Responder.Close()
		}
		return
	}

	if d.limiter != nil && !d.limiter.Allow() {
		logger.Debug("入站请求被限流", "from", in.From.String(), "type", m.Type().String())
		d.drop(in, metrics.DropRateLimited)
		return
	}

	h := d.handlerFor(m)
	if h == nil {
		logger.Debug("没有处理器接受该消息", "command", m.Command().String(), "type", m.Type().String())
		d.drop(in, metrics.DropUnhandled)
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.drop(in, metrics.DropUnhandled)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		req := InboundRequest{Message: m, Provider: d.provider}
		var once sync.Once
		h.HandleRequest(d.ctx, req, func(o Outcome) {
			once.Do(func() { d.finish(m, o, in.Responder) })
		})
	}()
}

func (d *Dispatcher) handlerFor(m *message.Message) Handler {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.handlers {
		if h.CheckMessage(m) {
			return h
		}
	}
	return nil
}

func (d *Dispatcher) completeReply(m *message.Message) {
	d.mu.Lock()
	entry, ok := d.pending[m.ID()]
	d.mu.Unlock()
	if !ok {
		logger.Debug("收到未知关联 ID 的回复", "id", m.ID().String(), "from", m.Sender().String())
		d.metrics.InboundDropped(metrics.DropUnknownReply)
		return
	}
	entry.resp.Complete(m)
}

func (d *Dispatcher) drop(in interfaces.Inbound, reason string) {
	d.metrics.InboundDropped(reason)
	if in.Responder != nil {
		_ = in.Responder.Close()
	}
}

// finish 按回复构造结果写回或释放回复通道
func (d *Dispatcher) finish(req *message.Message, o Outcome, responder interfaces.Responder) {
	d.metrics.Outcome(o.Kind.String(), o.Reason.String())
	if responder == nil {
		return
	}
	// 延迟回复可能在 Close 之后才到达，此时传输已关闭
	if d.ctx.Err() != nil {
		logger.Debug("调度器已关闭，放弃回复", "type", req.Type().String(), "id", req.ID().String())
		_ = responder.Close()
		return
	}

	switch o.Kind {
	case OutcomeReply:
		if req.Type().IsFireAndForget() || o.Reply == nil {
			_ = responder.Close()
			return
		}
		data, err := message.Marshal(o.Reply)
		if err != nil {
			logger.Error("编码回复失败", "id", req.ID().String(), "error", err)
			_ = responder.Close()
			return
		}
		ctx, cancel := context.WithTimeout(d.ctx, d.cfg.Timeout)
		defer cancel()
		if err := responder.Reply(ctx, data); err != nil {
			logger.Warn("写回复失败", "to", req.Sender().String(), "error", err)
		}

	case OutcomeSuppressed:
		logger.Debug("不回复", "type", req.Type().String(), "reason", o.Reason.String())
		_ = responder.Close()

	default:
		if errors.Is(o.Err, identity.ErrSigningFailed) {
			d.metrics.SigningFailed()
		}
		logger.Error("回复构造失败", "type", req.Type().String(), "sender", req.Sender().ID.ShortString(), "error", o.Err)
		_ = responder.Close()
	}
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭所有传输并使全部待决响应以传输失败完成
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	entries := make([]*pendingEntry, 0, len(d.pending))
	for _, e := range d.pending {
		entries = append(entries, e)
	}
	d.mu.Unlock()

	d.cancel()
	err := d.transports.Close()

	for _, e := range entries {
		e.resp.Fail(future.TransportFailure(ErrDispatcherClosed))
	}
	d.wg.Wait()
	return err
}
