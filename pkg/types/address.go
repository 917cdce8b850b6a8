package types

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// ============================================================================
//                              PeerAddress - 节点地址
// ============================================================================

// PeerAddress 节点地址
//
// 由节点标识、网络地址和传输能力标志组成，不可变值类型，可直接用 == 比较。
// 在消息信封中交换，使远端节点了解其他节点的连通性信息。
type PeerAddress struct {
	// ID 节点标识
	ID PeerID

	// IP 网络地址
	IP netip.Addr

	// UDPPort 数据报端口
	UDPPort uint16

	// StreamPort 流传输端口
	StreamPort uint16

	// Flags 传输能力标志
	Flags PeerFlags
}

// NewPeerAddress 创建节点地址
func NewPeerAddress(id PeerID, ip netip.Addr, udpPort, streamPort uint16) PeerAddress {
	return PeerAddress{
		ID:         id,
		IP:         ip.Unmap(),
		UDPPort:    udpPort,
		StreamPort: streamPort,
	}
}

// AddrPort 返回指定传输类型的可拨号端点
func (a PeerAddress) AddrPort(kind TransportKind) netip.AddrPort {
	switch kind {
	case TransportDatagram:
		return netip.AddrPortFrom(a.IP, a.UDPPort)
	case TransportStream:
		return netip.AddrPortFrom(a.IP, a.StreamPort)
	default:
		return netip.AddrPort{}
	}
}

// WithObserved 返回以传输层观测到的地址替换后的副本
//
// IP 与该传输类型对应的端口被替换，其他传输的端口与标志保持不变。
func (a PeerAddress) WithObserved(kind TransportKind, observed netip.AddrPort) PeerAddress {
	if !observed.IsValid() {
		return a
	}
	a.IP = observed.Addr().Unmap()
	switch kind {
	case TransportDatagram:
		a.UDPPort = observed.Port()
	case TransportStream:
		a.StreamPort = observed.Port()
	}
	return a
}

// WithFlags 返回设置了标志的副本
func (a PeerAddress) WithFlags(flags PeerFlags) PeerAddress {
	a.Flags = flags
	return a
}

// IsBroadcast 检查是否为广播地址（零值标识）
func (a PeerAddress) IsBroadcast() bool {
	return a.ID.IsZero()
}

// Validate 校验地址是否可用于发送
func (a PeerAddress) Validate(kind TransportKind) error {
	if !kind.Valid() {
		return ErrUnknownTransport
	}
	if ap := a.AddrPort(kind); !ap.IsValid() || ap.Port() == 0 {
		return fmt.Errorf("%w: %s has no %s endpoint", ErrInvalidAddress, a, kind)
	}
	return nil
}

// String 返回地址的字符串表示
//
// 格式: <short-id>@<ip>[udp=<port>,stream=<port>]
func (a PeerAddress) String() string {
	id := a.ID.ShortString()
	if id == "" {
		id = "*"
	}
	return fmt.Sprintf("%s@%s[udp=%d,stream=%d]", id, a.IP, a.UDPPort, a.StreamPort)
}

// ParsePeerAddress 解析命令行形式的地址
//
// 格式: [<peer-id>@]<ip>:<udp-port>[/<stream-port>]
// 省略 peer-id 时为零值标识，省略流端口时为 0。
func ParsePeerAddress(s string) (PeerAddress, error) {
	var a PeerAddress
	rest := strings.TrimSpace(s)
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		id, err := ParsePeerID(rest[:at])
		if err != nil {
			return a, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
		}
		a.ID = id
		rest = rest[at+1:]
	}

	hostPort, streamPart, hasStream := strings.Cut(rest, "/")
	ap, err := netip.ParseAddrPort(hostPort)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	a.IP = ap.Addr().Unmap()
	a.UDPPort = ap.Port()

	if hasStream {
		port, err := strconv.ParseUint(streamPart, 10, 16)
		if err != nil {
			return a, fmt.Errorf("%w: %q: bad stream port: %w", ErrInvalidAddress, s, err)
		}
		a.StreamPort = uint16(port)
	}
	return a, nil
}
