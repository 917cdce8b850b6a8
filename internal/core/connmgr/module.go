package connmgr

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Provider           *Provider
	ConnectionProvider interfaces.ConnectionProvider
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	p, err := New(ConfigFromUnified(input.Config))
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{
		Provider:           p,
		ConnectionProvider: p,
	}, nil
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC       fx.Lifecycle
	Provider *Provider
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Provider.Close()
		},
	})
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("connmgr",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}
