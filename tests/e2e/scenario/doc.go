// Package scenario 端到端场景测试
//
// 每个测试在回环地址上启动真实节点（UDP + QUIC），
// 覆盖握手 RPC 的典型使用场景。
package scenario
