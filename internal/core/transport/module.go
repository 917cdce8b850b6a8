package transport

import (
	"fmt"
	"net/netip"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/internal/core/identity"
	"github.com/dep2p/go-handshake/internal/core/transport/quic"
	"github.com/dep2p/go-handshake/internal/core/transport/udp"
	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config `optional:"true"`
	Identity *identity.Identity
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Set             *Set
	AddressProvider interfaces.AddressProvider
}

// ProvideServices 按配置创建并绑定传输
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := input.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	set, err := Open(cfg.Transport, input.Identity)
	if err != nil {
		return ModuleOutput{}, err
	}

	var publicIP netip.Addr
	if cfg.Transport.PublicIP != "" {
		publicIP, _ = netip.ParseAddr(cfg.Transport.PublicIP)
	} else {
		publicIP, _ = netip.ParseAddr(cfg.Transport.ListenIP)
	}
	adv := NewAdvertiser(input.Identity.ID(), publicIP, set)

	logger.Info("传输已就绪", "addr", adv.AdvertisedAddress().String())
	return ModuleOutput{
		Set:             set,
		AddressProvider: adv,
	}, nil
}

// Open 按配置绑定传输
//
// 任一传输绑定失败时关闭已绑定的传输并返回错误。
func Open(cfg config.TransportConfig, id *identity.Identity) (*Set, error) {
	if !cfg.EnableUDP && !cfg.EnableQUIC {
		return nil, ErrNoTransport
	}
	ip, err := netip.ParseAddr(cfg.ListenIP)
	if err != nil {
		return nil, fmt.Errorf("invalid listen ip %q: %w", cfg.ListenIP, err)
	}

	var broadcastIP netip.Addr
	if cfg.BroadcastIP != "" {
		if broadcastIP, err = netip.ParseAddr(cfg.BroadcastIP); err != nil {
			return nil, fmt.Errorf("invalid broadcast ip %q: %w", cfg.BroadcastIP, err)
		}
	}

	var opened []interfaces.Transport
	closeOpened := func(cause error) error {
		for _, t := range opened {
			cause = multierr.Append(cause, t.Close())
		}
		return cause
	}

	if cfg.EnableUDP {
		t, err := udp.Listen(udp.Config{
			ListenAddr:  netip.AddrPortFrom(ip, uint16(cfg.UDPPort)),
			BroadcastIP: broadcastIP,
		})
		if err != nil {
			return nil, closeOpened(err)
		}
		opened = append(opened, t)
	}
	if cfg.EnableQUIC {
		t, err := quic.Listen(quic.Config{
			ListenAddr:  netip.AddrPortFrom(ip, uint16(cfg.StreamPort)),
			PrivateKey:  id.PrivateKey(),
			DialTimeout: cfg.DialTimeout.Duration(),
		})
		if err != nil {
			return nil, closeOpened(err)
		}
		opened = append(opened, t)
	}
	return NewSet(opened...), nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideServices),
	)
}
