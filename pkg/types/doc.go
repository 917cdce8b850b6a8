// Package types 定义握手层的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go       - PeerID（160 位节点标识）
//   - address.go   - PeerAddress（节点标识 + 网络地址 + 传输能力标志）
//   - enums.go     - TransportKind, PeerFlags
//   - errors.go    - 公共错误定义
package types
