package handshake

import (
	"time"

	"github.com/dep2p/go-handshake/config"
)

// Config 握手服务配置
type Config struct {
	// ReplyEnabled 是否回复普通 ping
	ReplyEnabled bool

	// ReplyDelay 普通 ping 回复前是否等待 DelayInterval
	ReplyDelay bool

	// DelayInterval 延迟时长
	DelayInterval time.Duration

	// SignRequests 出站请求是否签名
	SignRequests bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ReplyEnabled:  true,
		DelayInterval: config.DefaultDelayInterval,
	}
}

// ConfigFromUnified 从统一配置创建握手配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		ReplyEnabled:  cfg.Handshake.ReplyEnabled,
		ReplyDelay:    cfg.Handshake.ReplyDelay,
		DelayInterval: cfg.Handshake.DelayInterval.Duration(),
		SignRequests:  cfg.Handshake.SignRequests,
	}
}
