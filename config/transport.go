package config

import (
	"fmt"
	"net/netip"
	"time"
)

// TransportConfig 传输层配置
type TransportConfig struct {
	// ListenIP 监听地址
	ListenIP string `json:"listen_ip"`

	// PublicIP 对外公布的地址（为空时使用监听地址）
	PublicIP string `json:"public_ip,omitempty"`

	// BroadcastIP 数据报广播目标（为空时使用 255.255.255.255）
	BroadcastIP string `json:"broadcast_ip,omitempty"`

	// EnableUDP 启用数据报传输
	EnableUDP bool `json:"enable_udp"`

	// EnableQUIC 启用流传输（QUIC）
	EnableQUIC bool `json:"enable_quic"`

	// UDPPort 数据报端口（0 = 随机）
	UDPPort int `json:"udp_port"`

	// StreamPort 流端口（0 = 随机）
	StreamPort int `json:"stream_port"`

	// MaxConcurrentUDP 同时进行的数据报发送上限
	MaxConcurrentUDP int `json:"max_concurrent_udp"`

	// MaxConcurrentStream 同时进行的流发送上限
	MaxConcurrentStream int `json:"max_concurrent_stream"`

	// DialTimeout 建立流连接的超时
	DialTimeout Duration `json:"dial_timeout"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		ListenIP:            "0.0.0.0",
		EnableUDP:           true,
		EnableQUIC:          true,
		MaxConcurrentUDP:    256,
		MaxConcurrentStream: 64,
		DialTimeout:         Duration(5 * time.Second),
	}
}

// Validate 验证传输配置
func (c *TransportConfig) Validate() error {
	if !c.EnableUDP && !c.EnableQUIC {
		return fmt.Errorf("transport: at least one of udp/quic must be enabled")
	}
	if _, err := netip.ParseAddr(c.ListenIP); err != nil {
		return fmt.Errorf("transport: invalid listen_ip %q: %w", c.ListenIP, err)
	}
	if c.PublicIP != "" {
		if _, err := netip.ParseAddr(c.PublicIP); err != nil {
			return fmt.Errorf("transport: invalid public_ip %q: %w", c.PublicIP, err)
		}
	}
	if c.BroadcastIP != "" {
		if _, err := netip.ParseAddr(c.BroadcastIP); err != nil {
			return fmt.Errorf("transport: invalid broadcast_ip %q: %w", c.BroadcastIP, err)
		}
	}
	for name, port := range map[string]int{"udp_port": c.UDPPort, "stream_port": c.StreamPort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("transport: %s out of range: %d", name, port)
		}
	}
	if c.MaxConcurrentUDP <= 0 || c.MaxConcurrentStream <= 0 {
		return fmt.Errorf("transport: concurrency limits must be positive")
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("transport: dial_timeout must be positive")
	}
	return nil
}
