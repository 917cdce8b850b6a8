package config

import (
	"encoding/hex"
	"fmt"
)

// IdentityConfig 身份配置
//
// 优先级：PrivateKey > KeyFile > 随机生成
type IdentityConfig struct {
	// PrivateKey ed25519 种子（32 字节，十六进制）
	PrivateKey string `json:"private_key,omitempty"`

	// KeyFile 密钥文件路径（内容为十六进制种子）
	KeyFile string `json:"key_file,omitempty"`

	// AutoCreate KeyFile 不存在时自动创建
	AutoCreate bool `json:"auto_create"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		AutoCreate: true,
	}
}

// Validate 验证身份配置
func (c *IdentityConfig) Validate() error {
	if c.PrivateKey == "" {
		return nil
	}
	seed, err := hex.DecodeString(c.PrivateKey)
	if err != nil {
		return fmt.Errorf("identity: private_key must be hex: %w", err)
	}
	if len(seed) != 32 {
		return fmt.Errorf("identity: private_key must be 32 bytes, got %d", len(seed))
	}
	return nil
}
