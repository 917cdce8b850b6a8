// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载和保存，支持预设配置（default/silent/slow/test）。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Handshake.ReplyEnabled = false
//
//	cfg, err := config.LoadFile("node.json")
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config 完整配置结构
//
//   - Identity: 节点密钥
//   - Transport: 数据报与流传输
//   - Handshake: 握手 RPC 行为（回复开关、延迟、超时、签名）
//   - Metrics: 指标收集
//   - Log: 日志
type Config struct {
	// Identity 身份配置
	Identity IdentityConfig `json:"identity"`

	// Transport 传输层配置
	Transport TransportConfig `json:"transport"`

	// Handshake 握手 RPC 配置
	Handshake HandshakeConfig `json:"handshake"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别 (debug/info/warn/error)
	Level string `json:"level"`

	// FxEvents 是否输出 fx 容器事件
	FxEvents bool `json:"fx_events"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用 prometheus 指标
	Enabled bool `json:"enabled"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity:  DefaultIdentityConfig(),
		Transport: DefaultTransportConfig(),
		Handshake: DefaultHandshakeConfig(),
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "dep2p",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Handshake.Validate(); err != nil {
		return err
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return errors.New("metrics: namespace cannot be empty when enabled")
	}
	return nil
}

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保持默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return FromJSON(data)
}

// ToJSON 序列化为 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "default": 默认行为
//   - "silent": 不回复普通 ping（模拟不响应的节点）
//   - "slow": 回复前等待 DelayInterval（模拟慢节点）
//   - "test": 短超时、短延迟，便于测试
func ApplyPreset(cfg *Config, preset string) error {
	switch preset {
	case "", "default":
		return nil
	case "silent":
		cfg.Handshake.ReplyEnabled = false
	case "slow":
		cfg.Handshake.ReplyDelay = true
	case "test":
		cfg.Handshake.Timeout = Duration(DefaultTestTimeout)
		cfg.Handshake.DelayInterval = Duration(DefaultTestDelay)
		cfg.Transport.ListenIP = "127.0.0.1"
		cfg.Transport.BroadcastIP = "127.0.0.1"
		cfg.Metrics.Enabled = false
	default:
		return fmt.Errorf("unknown preset %q", preset)
	}
	return nil
}
