package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"

	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
	"github.com/dep2p/go-handshake/pkg/types"
)

var logger = log.Logger("core/transport/udp")

// MaxDatagramSize 单个数据报的最大负载
const MaxDatagramSize = 64 * 1024

// DefaultBroadcastIP 受限广播地址
var DefaultBroadcastIP = netip.AddrFrom4([4]byte{255, 255, 255, 255})

// Config 数据报传输配置
type Config struct {
	// ListenAddr 监听地址（端口 0 = 随机）
	ListenAddr netip.AddrPort

	// BroadcastIP 广播目标地址
	BroadcastIP netip.Addr
}

// Transport 数据报传输
type Transport struct {
	cfg  Config
	conn *net.UDPConn

	mu      sync.Mutex
	started bool
	closed  bool

	wg sync.WaitGroup
}

// 确保实现接口
var _ interfaces.Transport = (*Transport)(nil)

// Listen 绑定 UDP socket
func Listen(cfg Config) (*Transport, error) {
	if !cfg.BroadcastIP.IsValid() {
		cfg.BroadcastIP = DefaultBroadcastIP
	}
	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(cfg.ListenAddr))
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", cfg.ListenAddr, err)
	}
	logger.Debug("数据报传输已监听", "addr", conn.LocalAddr().String())
	return &Transport{cfg: cfg, conn: conn}, nil
}

// Kind 返回传输类型
func (t *Transport) Kind() types.TransportKind {
	return types.TransportDatagram
}

// Start 启动读循环
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

	t.wg.Add(1)
	go t.readLoop(handler)
	return nil
}

func (t *Transport) readLoop(handler interfaces.InboundHandler) {
	defer t.wg.Done()

	buf := make([]byte, MaxDatagramSize)
	for {
		n, from, err := t.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("读取数据报失败", "error", err)
			continue
		}
		if n == 0 {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())

		handler(interfaces.Inbound{
			Data:      data,
			From:      from,
			Kind:      types.TransportDatagram,
			Responder: &responder{t: t, to: from},
		})
	}
}

// Send 发送一个数据报
//
// 回复从读循环到达，expectReply 在这里没有作用。
func (t *Transport) Send(ctx context.Context, to netip.AddrPort, data []byte, _ bool) error {
	return t.write(ctx, to, data)
}

// Broadcast 向 BroadcastIP:port 发送一个数据报
func (t *Transport) Broadcast(ctx context.Context, port uint16, data []byte) error {
	return t.write(ctx, netip.AddrPortFrom(t.cfg.BroadcastIP, port), data)
}

func (t *Transport) write(ctx context.Context, to netip.AddrPort, data []byte) error {
	if len(data) > MaxDatagramSize {
		return ErrFrameTooLarge
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}

	if _, err := t.conn.WriteToUDPAddrPort(data, to); err != nil {
		return fmt.Errorf("write to %s: %w", to, err)
	}
	return nil
}

// LocalAddr 返回监听地址
func (t *Transport) LocalAddr() netip.AddrPort {
	ap := t.conn.LocalAddr().(*net.UDPAddr).AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// Close 关闭 socket 并等待读循环退出
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	err := t.conn.Close()
	t.wg.Wait()
	return err
}

// ============================================================================
//                              回复通道
// ============================================================================

type responder struct {
	t  *Transport
	to netip.AddrPort
}

func (r *responder) Reply(ctx context.Context, data []byte) error {
	return r.t.write(ctx, r.to, data)
}

func (r *responder) Close() error {
	return nil
}
