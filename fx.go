package handshake

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/dep2p/go-handshake/internal/core/connmgr"
	"github.com/dep2p/go-handshake/internal/core/dispatcher"
	"github.com/dep2p/go-handshake/internal/core/identity"
	"github.com/dep2p/go-handshake/internal/core/metrics"
	"github.com/dep2p/go-handshake/internal/core/transport"
	hsproto "github.com/dep2p/go-handshake/internal/protocol/handshake"
	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
)

var fxLogger = log.Logger("handshake/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Identity → Metrics → ConnMgr
//  2. Transport（绑定端口）→ Dispatcher
//  3. Handshake（注册为 PING 处理器）
func buildFxApp(cfg *nodeConfig, node *Node) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 模块
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg.config),

		identity.Module(),
		metrics.Module(),
		connmgr.Module(),
		transport.Module(),
		dispatcher.Module(),
		hsproto.Module(),
	}

	if cfg.clock != nil {
		clk := cfg.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	// 用户自定义选项
	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 注入 Node 组件与日志
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Invoke(injectNodeComponents(node)),
		fx.WithLogger(func() fxevent.Logger {
			return log.FxLogger(cfg.config.Log.FxEvents)
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		fxLogger.Warn("fx 应用构建失败", "error", err)
		return nil, err
	}
	return app, nil
}

// nodeComponents Node 需要的组件
type nodeComponents struct {
	fx.In

	Service    *hsproto.Service
	Dispatcher *dispatcher.Dispatcher
	Identity   *identity.Identity
	Self       interfaces.AddressProvider
	ConnMgr    *connmgr.Provider
	Transports *transport.Set
	Metrics    *metrics.Collector `optional:"true"`
}

func injectNodeComponents(node *Node) interface{} {
	return func(c nodeComponents) {
		node.service = c.Service
		node.dispatcher = c.Dispatcher
		node.identity = c.Identity
		node.self = c.Self
		node.connmgr = c.ConnMgr
		node.transports = c.Transports
		node.metrics = c.Metrics
	}
}
