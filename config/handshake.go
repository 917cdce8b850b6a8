package config

import (
	"fmt"
	"time"
)

// 默认值
const (
	// DefaultDelayInterval 慢节点模拟的回复延迟
	DefaultDelayInterval = 10 * time.Second

	// DefaultResponseTimeout 等待回复的超时
	DefaultResponseTimeout = 5 * time.Second

	// DefaultTestTimeout 测试预设的超时
	DefaultTestTimeout = 2 * time.Second

	// DefaultTestDelay 测试预设的回复延迟
	DefaultTestDelay = 200 * time.Millisecond
)

// HandshakeConfig 握手 RPC 配置
type HandshakeConfig struct {
	// ReplyEnabled 是否回复普通 ping（REQUEST_1 / REQUEST_FF_1）
	// 为 false 时仍会回复发现和探测请求
	ReplyEnabled bool `json:"reply_enabled"`

	// ReplyDelay 回复普通 ping 前是否等待 DelayInterval
	// 无论最终是否回复都会等待，用于模拟慢节点
	ReplyDelay bool `json:"reply_delay"`

	// DelayInterval 回复延迟时长
	DelayInterval Duration `json:"delay_interval"`

	// Timeout 等待回复的超时
	Timeout Duration `json:"timeout"`

	// SignRequests 是否对出站请求签名（对端会据此签名回复）
	SignRequests bool `json:"sign_requests"`

	// InboundRate 每秒允许处理的入站请求数（0 = 不限）
	InboundRate float64 `json:"inbound_rate"`

	// InboundBurst 入站请求突发上限
	InboundBurst int `json:"inbound_burst"`
}

// DefaultHandshakeConfig 返回默认握手配置
func DefaultHandshakeConfig() HandshakeConfig {
	return HandshakeConfig{
		ReplyEnabled:  true,
		ReplyDelay:    false,
		DelayInterval: Duration(DefaultDelayInterval),
		Timeout:       Duration(DefaultResponseTimeout),
		InboundBurst:  64,
	}
}

// Validate 验证握手配置
func (c *HandshakeConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("handshake: timeout must be positive")
	}
	if c.ReplyDelay && c.DelayInterval <= 0 {
		return fmt.Errorf("handshake: delay_interval must be positive when reply_delay is set")
	}
	if c.InboundRate < 0 {
		return fmt.Errorf("handshake: inbound_rate cannot be negative")
	}
	if c.InboundRate > 0 && c.InboundBurst <= 0 {
		return fmt.Errorf("handshake: inbound_burst must be positive when inbound_rate is set")
	}
	return nil
}
