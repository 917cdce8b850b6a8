package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dep2p/go-handshake/config"
)

// applyEnvOverrides 应用环境变量覆盖
//
// 支持的环境变量：
//   - DEP2P_HANDSHAKE_PRESET: 预设
//   - DEP2P_HANDSHAKE_LISTEN_IP: 监听地址
//   - DEP2P_HANDSHAKE_UDP_PORT / DEP2P_HANDSHAKE_STREAM_PORT: 端口
//   - DEP2P_HANDSHAKE_IDENTITY_FILE: 身份密钥文件
//   - DEP2P_HANDSHAKE_REPLY_ENABLED: 是否回复普通 ping
//   - DEP2P_HANDSHAKE_LOG_LEVEL: 日志级别
func applyEnvOverrides(cfg *config.Config, rt *runtimeConfig) {
	if v := getEnv(config.EnvPreset); v != "" {
		rt.preset = v
	}
	if v := getEnv(config.EnvListenIP); v != "" {
		cfg.Transport.ListenIP = v
	}
	if v := getEnv(config.EnvUDPPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Transport.UDPPort = port
		}
	}
	if v := getEnv(config.EnvStreamPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Transport.StreamPort = port
		}
	}
	if v := getEnv(config.EnvIdentityFile); v != "" {
		cfg.Identity.KeyFile = v
	}
	if v := getEnv(config.EnvReplyEnabled); v != "" {
		cfg.Handshake.ReplyEnabled = parseBool(v)
	}
	if v := getEnv(config.EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

func getEnv(name string) string {
	return os.Getenv(config.EnvPrefix + name)
}

// ============================================================================
//                              辅助函数
// ============================================================================

// parseBool 解析布尔值字符串
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parsePort 校验端口参数，0 与超出 65535 的值都无效
func parsePort(p uint) (uint16, error) {
	if p == 0 || p > 65535 {
		return 0, fmt.Errorf("端口超出范围: %d", p)
	}
	return uint16(p), nil
}
