package connmgr

import (
	"fmt"

	"github.com/dep2p/go-handshake/config"
)

// Config 连接资源配置
type Config struct {
	// MaxDatagram 同时借出的数据报许可上限
	MaxDatagram int64

	// MaxStream 同时借出的流许可上限
	MaxStream int64
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	d := config.DefaultTransportConfig()
	return Config{
		MaxDatagram: int64(d.MaxConcurrentUDP),
		MaxStream:   int64(d.MaxConcurrentStream),
	}
}

// ConfigFromUnified 从统一配置创建连接资源配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		MaxDatagram: int64(cfg.Transport.MaxConcurrentUDP),
		MaxStream:   int64(cfg.Transport.MaxConcurrentStream),
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.MaxDatagram <= 0 || c.MaxStream <= 0 {
		return fmt.Errorf("%w: limits must be positive (datagram=%d stream=%d)",
			ErrInvalidConfig, c.MaxDatagram, c.MaxStream)
	}
	return nil
}
