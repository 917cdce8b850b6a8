// Package testutil 提供测试辅助工具
package testutil

import "time"

// 测试数据固件
//
// 提供测试中常用的常量值，确保测试一致性。

const (
	// DefaultTestPreset 测试节点使用的预设
	//
	// 回环地址、短超时、短延迟、关闭指标。
	DefaultTestPreset = "test"

	// DefaultAwaitTimeout 等待单个响应的上限
	DefaultAwaitTimeout = 5 * time.Second

	// DefaultTestSeedA / DefaultTestSeedB 固定身份种子（十六进制）
	//
	// 用于需要稳定 PeerID 的场景。
	DefaultTestSeedA = "0101010101010101010101010101010101010101010101010101010101010101"
	DefaultTestSeedB = "0202020202020202020202020202020202020202020202020202020202020202"
)
