package handshake

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/pkg/interfaces"
)

// Option 节点配置选项函数
type Option func(*nodeConfig) error

// nodeConfig 内部选项结构
type nodeConfig struct {
	// config 统一配置，选项直接修改它
	config *config.Config

	// clock 计时器来源（测试中注入 clock.Mock）
	clock clock.Clock

	// userFxOptions 用户自定义 fx 选项
	userFxOptions []fx.Option
}

// newNodeConfig 创建默认选项
func newNodeConfig() *nodeConfig {
	return &nodeConfig{
		config: config.NewConfig(),
	}
}

// ============================================================================
//                              配置来源
// ============================================================================

// WithConfig 使用完整配置
//
// 在其他选项之前应用，之后的选项会覆盖其中的字段。
func WithConfig(cfg *config.Config) Option {
	return func(c *nodeConfig) error {
		if cfg == nil {
			return fmt.Errorf("配置不能为空")
		}
		c.config = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(c *nodeConfig) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		c.config = cfg
		return nil
	}
}

// WithPreset 应用预设（default/silent/slow/test）
func WithPreset(name string) Option {
	return func(c *nodeConfig) error {
		return config.ApplyPreset(c.config, name)
	}
}

// ============================================================================
//                              身份
// ============================================================================

// WithPrivateKeyHex 使用十六进制编码的 ed25519 种子
func WithPrivateKeyHex(seed string) Option {
	return func(c *nodeConfig) error {
		if _, err := hex.DecodeString(seed); err != nil {
			return fmt.Errorf("私钥格式错误: %w", err)
		}
		c.config.Identity.PrivateKey = seed
		return nil
	}
}

// WithIdentityFile 从文件加载身份，文件不存在时生成并保存
func WithIdentityFile(path string) Option {
	return func(c *nodeConfig) error {
		c.config.Identity.KeyFile = path
		c.config.Identity.AutoCreate = true
		return nil
	}
}

// ============================================================================
//                              传输
// ============================================================================

// WithListenIP 设置监听地址
func WithListenIP(ip string) Option {
	return func(c *nodeConfig) error {
		c.config.Transport.ListenIP = ip
		return nil
	}
}

// WithPublicIP 设置对外公布的地址
func WithPublicIP(ip string) Option {
	return func(c *nodeConfig) error {
		c.config.Transport.PublicIP = ip
		return nil
	}
}

// WithListenPorts 设置数据报与流端口（0 = 随机）
func WithListenPorts(udpPort, streamPort int) Option {
	return func(c *nodeConfig) error {
		if udpPort < 0 || udpPort > 65535 || streamPort < 0 || streamPort > 65535 {
			return fmt.Errorf("端口超出范围: udp=%d stream=%d", udpPort, streamPort)
		}
		c.config.Transport.UDPPort = udpPort
		c.config.Transport.StreamPort = streamPort
		return nil
	}
}

// WithTransports 选择启用的传输
func WithTransports(udp, quic bool) Option {
	return func(c *nodeConfig) error {
		c.config.Transport.EnableUDP = udp
		c.config.Transport.EnableQUIC = quic
		return nil
	}
}

// WithBroadcastIP 设置数据报广播目标
func WithBroadcastIP(ip string) Option {
	return func(c *nodeConfig) error {
		c.config.Transport.BroadcastIP = ip
		return nil
	}
}

// ============================================================================
//                              握手行为
// ============================================================================

// WithReplyEnabled 是否回复普通 ping
func WithReplyEnabled(enabled bool) Option {
	return func(c *nodeConfig) error {
		c.config.Handshake.ReplyEnabled = enabled
		return nil
	}
}

// WithReplyDelay 回复普通 ping 前等待 interval
//
// interval 为 0 时使用默认延迟。
func WithReplyDelay(delay bool, interval time.Duration) Option {
	return func(c *nodeConfig) error {
		c.config.Handshake.ReplyDelay = delay
		if interval > 0 {
			c.config.Handshake.DelayInterval = config.Duration(interval)
		}
		return nil
	}
}

// WithTimeout 设置等待回复的超时
func WithTimeout(d time.Duration) Option {
	return func(c *nodeConfig) error {
		if d <= 0 {
			return fmt.Errorf("超时必须为正: %s", d)
		}
		c.config.Handshake.Timeout = config.Duration(d)
		return nil
	}
}

// WithSignRequests 是否对出站请求签名
func WithSignRequests(sign bool) Option {
	return func(c *nodeConfig) error {
		c.config.Handshake.SignRequests = sign
		return nil
	}
}

// WithInboundRateLimit 限制每秒处理的入站请求数
func WithInboundRateLimit(perSecond float64, burst int) Option {
	return func(c *nodeConfig) error {
		c.config.Handshake.InboundRate = perSecond
		c.config.Handshake.InboundBurst = burst
		return nil
	}
}

// ============================================================================
//                              运行环境
// ============================================================================

// WithMetrics 是否启用 prometheus 指标
func WithMetrics(enabled bool) Option {
	return func(c *nodeConfig) error {
		c.config.Metrics.Enabled = enabled
		return nil
	}
}

// WithLogLevel 设置日志级别
func WithLogLevel(level string) Option {
	return func(c *nodeConfig) error {
		c.config.Log.Level = level
		return nil
	}
}

// WithFxLogs 是否输出 fx 容器事件
func WithFxLogs(enabled bool) Option {
	return func(c *nodeConfig) error {
		c.config.Log.FxEvents = enabled
		return nil
	}
}

// WithClock 注入计时器来源
func WithClock(clk clock.Clock) Option {
	return func(c *nodeConfig) error {
		c.clock = clk
		return nil
	}
}

// WithFxOptions 追加自定义 fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(c *nodeConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}

// ============================================================================
//                              单次调用选项
// ============================================================================

// CallOption 单次出站调用选项
type CallOption func(*callOptions)

type callOptions struct {
	provider interfaces.ConnectionProvider
}

// UsingProvider 本次调用使用指定的连接资源提供者
//
// 未指定时使用节点默认的提供者。
func UsingProvider(p interfaces.ConnectionProvider) CallOption {
	return func(o *callOptions) {
		o.provider = p
	}
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
