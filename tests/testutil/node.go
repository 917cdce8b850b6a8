package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	handshake "github.com/dep2p/go-handshake"
)

// TestNodeBuilder 测试节点构建器
//
// 使用 Builder 模式简化测试节点的创建和配置。
//
// 示例:
//
//	node := testutil.NewTestNode(t).
//		WithReplyEnabled(false).
//		Start()
type TestNodeBuilder struct {
	t      *testing.T
	preset string
	opts   []handshake.Option
}

// NewTestNode 创建测试节点构建器
//
// 默认配置:
//   - preset: "test"（回环地址、随机端口）
func NewTestNode(t *testing.T) *TestNodeBuilder {
	t.Helper()
	return &TestNodeBuilder{
		t:      t,
		preset: DefaultTestPreset,
	}
}

// WithPreset 设置预设配置
func (b *TestNodeBuilder) WithPreset(preset string) *TestNodeBuilder {
	b.preset = preset
	return b
}

// WithSeed 使用固定身份种子
func (b *TestNodeBuilder) WithSeed(seedHex string) *TestNodeBuilder {
	b.opts = append(b.opts, handshake.WithPrivateKeyHex(seedHex))
	return b
}

// WithReplyEnabled 设置是否回复普通 ping
func (b *TestNodeBuilder) WithReplyEnabled(enabled bool) *TestNodeBuilder {
	b.opts = append(b.opts, handshake.WithReplyEnabled(enabled))
	return b
}

// WithReplyDelay 设置回复延迟
func (b *TestNodeBuilder) WithReplyDelay(d time.Duration) *TestNodeBuilder {
	b.opts = append(b.opts, handshake.WithReplyDelay(d > 0, d))
	return b
}

// WithMetrics 启用指标
func (b *TestNodeBuilder) WithMetrics() *TestNodeBuilder {
	b.opts = append(b.opts, handshake.WithMetrics(true))
	return b
}

// WithOptions 追加任意节点选项
func (b *TestNodeBuilder) WithOptions(opts ...handshake.Option) *TestNodeBuilder {
	b.opts = append(b.opts, opts...)
	return b
}

// Start 启动节点并注册清理函数
//
// 节点会在测试结束时自动关闭。
func (b *TestNodeBuilder) Start() *handshake.Node {
	b.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := append([]handshake.Option{handshake.WithPreset(b.preset)}, b.opts...)
	node, err := handshake.Start(ctx, opts...)
	require.NoError(b.t, err, "启动测试节点失败")
	require.NotNil(b.t, node, "节点不应为 nil")

	b.t.Cleanup(func() {
		if err := node.Close(); err != nil {
			b.t.Logf("关闭节点失败: %v", err)
		}
	})
	return node
}
