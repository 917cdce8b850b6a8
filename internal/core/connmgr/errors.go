package connmgr

import "errors"

// 连接资源错误定义
var (
	// ErrProviderClosed 提供者已关闭
	ErrProviderClosed = errors.New("connmgr: provider closed")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("connmgr: invalid config")
)
