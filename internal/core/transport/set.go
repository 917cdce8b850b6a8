package transport

import (
	"net"
	"net/netip"

	"go.uber.org/multierr"

	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/types"
)

// ============================================================================
//                              Set
// ============================================================================

// Set 本节点启用的传输集合，每种类型至多一个
type Set struct {
	byKind map[types.TransportKind]interfaces.Transport
}

// NewSet 创建传输集合，同类型后者覆盖前者
func NewSet(transports ...interfaces.Transport) *Set {
	s := &Set{byKind: make(map[types.TransportKind]interfaces.Transport, len(transports))}
	for _, t := range transports {
		if t != nil {
			s.byKind[t.Kind()] = t
		}
	}
	return s
}

// Get 返回指定类型的传输
func (s *Set) Get(kind types.TransportKind) (interfaces.Transport, bool) {
	t, ok := s.byKind[kind]
	return t, ok
}

// All 返回全部传输（数据报在前）
func (s *Set) All() []interfaces.Transport {
	out := make([]interfaces.Transport, 0, len(s.byKind))
	for _, kind := range []types.TransportKind{types.TransportDatagram, types.TransportStream} {
		if t, ok := s.byKind[kind]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Port 返回指定类型传输的监听端口，未启用时为 0
func (s *Set) Port(kind types.TransportKind) uint16 {
	if t, ok := s.byKind[kind]; ok {
		return t.LocalAddr().Port()
	}
	return 0
}

// Close 关闭全部传输
func (s *Set) Close() error {
	var err error
	for _, t := range s.All() {
		err = multierr.Append(err, t.Close())
	}
	return err
}

// ============================================================================
//                              Advertiser
// ============================================================================

// Advertiser 根据身份与实际监听端口生成本节点公布的地址
type Advertiser struct {
	id  types.PeerID
	ip  netip.Addr
	set *Set
}

// 确保实现接口
var _ interfaces.AddressProvider = (*Advertiser)(nil)

// NewAdvertiser 创建地址公布器
//
// ip 为未指定地址时自动选择一个本机地址。
func NewAdvertiser(id types.PeerID, ip netip.Addr, set *Set) *Advertiser {
	if !ip.IsValid() || ip.IsUnspecified() {
		ip = guessLocalIP()
	}
	return &Advertiser{id: id, ip: ip, set: set}
}

// AdvertisedAddress 返回本节点对外公布的地址
func (a *Advertiser) AdvertisedAddress() types.PeerAddress {
	return types.NewPeerAddress(a.id, a.ip,
		a.set.Port(types.TransportDatagram),
		a.set.Port(types.TransportStream))
}

// guessLocalIP 选择第一个非回环的 IPv4 接口地址，找不到时用回环地址
func guessLocalIP() netip.Addr {
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip, ok := netip.AddrFromSlice(ipnet.IP)
			if !ok {
				continue
			}
			ip = ip.Unmap()
			if ip.Is4() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() {
				return ip
			}
		}
	}
	return netip.AddrFrom4([4]byte{127, 0, 0, 1})
}
