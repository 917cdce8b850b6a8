// Package lib 包含基础设施工具库
//
// 本目录包含与架构组件无关的通用工具库：
//
//   - log: 日志封装（log/slog 之上的组件 logger，以及 fx 事件桥接）
//
// # 与 pkg/ 其他目录的关系
//
//   - interfaces/: 组件公共接口（架构核心）
//   - types/: 公共类型定义（架构核心）
//   - lib/: 基础设施工具库（本目录）
//
// # 使用示例
//
//	import "github.com/dep2p/go-handshake/pkg/lib/log"
//
//	var logger = log.Logger("core/transport")
package lib
