package config

// 环境变量名（加 EnvPrefix 前缀）
const (
	EnvPrefix = "DEP2P_HANDSHAKE_"

	EnvPreset       = "PRESET"
	EnvListenIP     = "LISTEN_IP"
	EnvUDPPort      = "UDP_PORT"
	EnvStreamPort   = "STREAM_PORT"
	EnvIdentityFile = "IDENTITY_FILE"
	EnvReplyEnabled = "REPLY_ENABLED"
	EnvLogLevel     = "LOG_LEVEL"
)
