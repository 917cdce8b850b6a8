package dispatcher

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/internal/core/identity"
	"github.com/dep2p/go-handshake/internal/core/metrics"
	"github.com/dep2p/go-handshake/internal/core/transport"
	"github.com/dep2p/go-handshake/pkg/interfaces"
)

// ConfigFromUnified 从统一配置创建调度器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return Config{
		Timeout:      cfg.Handshake.Timeout.Duration(),
		InboundRate:  cfg.Handshake.InboundRate,
		InboundBurst: cfg.Handshake.InboundBurst,
	}
}

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config     *config.Config `optional:"true"`
	Transports *transport.Set
	Provider   interfaces.ConnectionProvider
	KeyBook    *identity.KeyBook  `optional:"true"`
	Metrics    *metrics.Collector `optional:"true"`
	Clock      clock.Clock        `optional:"true"`
}

// ProvideDispatcher 提供调度器
func ProvideDispatcher(input ModuleInput) *Dispatcher {
	return New(Params{
		Config:     ConfigFromUnified(input.Config),
		Transports: input.Transports,
		Provider:   input.Provider,
		KeyBook:    input.KeyBook,
		Metrics:    input.Metrics,
		Clock:      input.Clock,
	})
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC         fx.Lifecycle
	Dispatcher *Dispatcher
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return input.Dispatcher.Start()
		},
		OnStop: func(_ context.Context) error {
			return input.Dispatcher.Close()
		},
	})
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("dispatcher",
		fx.Provide(ProvideDispatcher),
		fx.Invoke(registerLifecycle),
	)
}
