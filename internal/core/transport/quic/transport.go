package quic

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"

	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
	"github.com/dep2p/go-handshake/pkg/types"
)

var logger = log.Logger("core/transport/quic")

// 默认值
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReplyTimeout = 30 * time.Second
)

// Config 流传输配置
type Config struct {
	// ListenAddr 监听地址（端口 0 = 随机）
	ListenAddr netip.AddrPort

	// PrivateKey 节点私钥，用于生成自签名证书
	PrivateKey ed25519.PrivateKey

	// DialTimeout 建立连接的超时
	DialTimeout time.Duration

	// ReplyTimeout 一条流上等待帧的最长时间
	ReplyTimeout time.Duration
}

// Transport QUIC 流传输
type Transport struct {
	cfg Config

	udpConn   *net.UDPConn
	qt        *quic.Transport
	listener  *quic.Listener
	serverTLS *tls.Config
	clientTLS *tls.Config
	qconf     *quic.Config

	mu      sync.Mutex
	conns   map[netip.AddrPort]*quic.Conn
	handler interfaces.InboundHandler
	started bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// 确保实现接口
var _ interfaces.Transport = (*Transport)(nil)

// Listen 创建共享 UDP socket 并开始监听 QUIC 连接
func Listen(cfg Config) (*Transport, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = DefaultReplyTimeout
	}
	serverTLS, clientTLS, err := newTLSConfigs(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	udpConn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(cfg.ListenAddr))
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", cfg.ListenAddr, err)
	}

	t := &Transport{
		cfg:       cfg,
		udpConn:   udpConn,
		qt:        &quic.Transport{Conn: udpConn},
		serverTLS: serverTLS,
		clientTLS: clientTLS,
		qconf: &quic.Config{
			// 3s 保活 + 6s 空闲超时，非优雅断开约 9s 内可检测到
			MaxIdleTimeout:     6 * time.Second,
			KeepAlivePeriod:    3 * time.Second,
			MaxIncomingStreams: 1024,
		},
		conns: make(map[netip.AddrPort]*quic.Conn),
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())

	ln, err := t.qt.Listen(t.serverTLS, t.qconf)
	if err != nil {
		_ = udpConn.Close()
		return nil, fmt.Errorf("listen quic: %w", err)
	}
	t.listener = ln

	logger.Debug("流传输已监听", "addr", udpConn.LocalAddr().String())
	return t, nil
}

// Kind 返回传输类型
func (t *Transport) Kind() types.TransportKind {
	return types.TransportStream
}

// Start 开始接受入站连接
func (t *Transport) Start(handler interfaces.InboundHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	t.handler = handler

	t.wg.Add(1)
	go t.acceptLoop()
	return nil
}

func (t *Transport) acceptLoop() {
	defer t.wg.Done()
	for {
		conn, err := t.listener.Accept(t.ctx)
		if err != nil {
			if t.ctx.Err() == nil {
				logger.Warn("接受连接失败", "error", err)
			}
			return
		}
		t.wg.Add(1)
		go t.serveConn(conn)
	}
}

func (t *Transport) serveConn(conn *quic.Conn) {
	defer t.wg.Done()
	from := remoteAddrPort(conn)
	for {
		s, err := conn.AcceptStream(t.ctx)
		if err != nil {
			return
		}
		t.wg.Add(1)
		go t.serveStream(s, from)
	}
}

func (t *Transport) serveStream(s *quic.Stream, from netip.AddrPort) {
	defer t.wg.Done()

	_ = s.SetReadDeadline(time.Now().Add(t.cfg.ReplyTimeout))
	data, err := ReadFrame(bufio.NewReader(s))
	if err != nil {
		logger.Debug("读取请求帧失败", "from", from.String(), "error", err)
		s.CancelRead(0)
		_ = s.Close()
		return
	}

	t.deliver(interfaces.Inbound{
		Data:      data,
		From:      from,
		Kind:      types.TransportStream,
		Responder: &streamResponder{s: s},
	})
}

func (t *Transport) deliver(in interfaces.Inbound) {
	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()
	if handler == nil {
		if in.Responder != nil {
			_ = in.Responder.Close()
		}
		return
	}
	handler(in)
}

// Send 在新的双向流上发送一帧
//
// expectReply 为 true 时，后台读取同一条流上的回复帧并交付给 handler。
func (t *Transport) Send(ctx context.Context, to netip.AddrPort, data []byte, expectReply bool) error {
	if len(data) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	conn, err := t.connTo(ctx, to)
	if err != nil {
		return err
	}

	s, err := conn.OpenStreamSync(ctx)
	if err != nil {
		t.evict(to, conn)
		return fmt.Errorf("open stream to %s: %w", to, err)
	}
	if err := WriteFrame(s, data); err != nil {
		s.CancelRead(0)
		s.CancelWrite(0)
		return fmt.Errorf("write frame to %s: %w", to, err)
	}
	// 关闭写方向，读方向留给回复
	_ = s.Close()

	if !expectReply {
		s.CancelRead(0)
		return nil
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer s.CancelRead(0)

		_ = s.SetReadDeadline(time.Now().Add(t.cfg.ReplyTimeout))
		reply, err := ReadFrame(bufio.NewReader(s))
		if err != nil {
			logger.Debug("流上未收到回复", "to", to.String(), "error", err)
			return
		}
		t.deliver(interfaces.Inbound{
			Data: reply,
			From: to,
			Kind: types.TransportStream,
		})
	}()
	return nil
}

// connTo 返回到 to 的缓存连接，没有则拨号
func (t *Transport) connTo(ctx context.Context, to netip.AddrPort) (*quic.Conn, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	if conn, ok := t.conns[to]; ok {
		t.mu.Unlock()
		return conn, nil
	}
	t.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
	defer cancel()
	conn, err := t.qt.Dial(dialCtx, net.UDPAddrFromAddrPort(to), t.clientTLS, t.qconf)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", to, err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = conn.CloseWithError(0, "transport closed")
		return nil, ErrTransportClosed
	}
	if existing, ok := t.conns[to]; ok {
		// 并发拨号，保留先入缓存的连接
		t.mu.Unlock()
		_ = conn.CloseWithError(0, "duplicate")
		return existing, nil
	}
	t.conns[to] = conn
	t.mu.Unlock()

	logger.Debug("已建立 QUIC 连接", "to", to.String())

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		<-conn.Context().Done()
		t.evict(to, conn)
	}()
	return conn, nil
}

func (t *Transport) evict(to netip.AddrPort, conn *quic.Conn) {
	t.mu.Lock()
	if t.conns[to] == conn {
		delete(t.conns, to)
	}
	t.mu.Unlock()
}

// ConnCount 返回缓存的出站连接数
func (t *Transport) ConnCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// Broadcast 流传输不支持广播
func (t *Transport) Broadcast(context.Context, uint16, []byte) error {
	return ErrBroadcastUnsupported
}

// LocalAddr 返回监听地址
func (t *Transport) LocalAddr() netip.AddrPort {
	ap := t.udpConn.LocalAddr().(*net.UDPAddr).AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// Close 关闭监听器、所有连接和 socket
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conns := make([]*quic.Conn, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.conns = make(map[netip.AddrPort]*quic.Conn)
	t.mu.Unlock()

	t.cancel()

	var err error
	err = multierr.Append(err, t.listener.Close())
	for _, c := range conns {
		_ = c.CloseWithError(0, "closing")
	}
	err = multierr.Append(err, t.qt.Close())
	if cerr := t.udpConn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		err = multierr.Append(err, cerr)
	}
	t.wg.Wait()
	return err
}

func remoteAddrPort(conn *quic.Conn) netip.AddrPort {
	if ua, ok := conn.RemoteAddr().(*net.UDPAddr); ok {
		ap := ua.AddrPort()
		return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}
	return netip.AddrPort{}
}

// ============================================================================
//                              回复通道
// ============================================================================

type streamResponder struct {
	s    *quic.Stream
	once sync.Once
}

// Reply 在请求流上写回复帧并关闭流
//
// 帧写入成功后，对端读完回复即可能发出 STOP_SENDING，此时 Close 的错误不算失败。
func (r *streamResponder) Reply(_ context.Context, data []byte) error {
	err := ErrTransportClosed
	r.once.Do(func() {
		r.s.CancelRead(0)
		if err = WriteFrame(r.s, data); err != nil {
			r.s.CancelWrite(0)
			return
		}
		if cerr := r.s.Close(); cerr != nil {
			logger.Debug("回复已写出，关闭流时对端已取消", "stream", r.s.StreamID(), "error", cerr)
		}
	})
	return err
}

// Close 不回复，直接重置写方向
func (r *streamResponder) Close() error {
	r.once.Do(func() {
		r.s.CancelRead(0)
		r.s.CancelWrite(0)
	})
	return nil
}
