package handshake

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/internal/core/dispatcher"
	"github.com/dep2p/go-handshake/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config     *config.Config `optional:"true"`
	Dispatcher *dispatcher.Dispatcher
	Signer     interfaces.Signer
	Self       interfaces.AddressProvider
	Provider   interfaces.ConnectionProvider
	Clock      clock.Clock `optional:"true"`
}

// ProvideService 提供握手服务
func ProvideService(input ModuleInput) *Service {
	return New(Params{
		Config:   ConfigFromUnified(input.Config),
		Sender:   input.Dispatcher,
		Signer:   input.Signer,
		Self:     input.Self,
		Provider: input.Provider,
		Clock:    input.Clock,
	})
}

// registerHandler 在调度器启动前注册为 PING 请求处理器
func registerHandler(d *dispatcher.Dispatcher, s *Service) {
	d.Register(s)
	logger.Debug("握手处理器已注册")
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("handshake",
		fx.Provide(ProvideService),
		fx.Invoke(registerHandler),
	)
}
