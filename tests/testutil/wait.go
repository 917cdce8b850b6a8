package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	handshake "github.com/dep2p/go-handshake"
	"github.com/dep2p/go-handshake/pkg/types"
)

// WaitForCondition 等待条件满足或超时
//
// 返回：条件是否满足（超时返回 false）
func WaitForCondition(t *testing.T, timeout time.Duration, interval time.Duration, condition func() bool) bool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 立即检查一次
	if condition() {
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if condition() {
				return true
			}
		}
	}
}

// Eventually 在指定时间内重试条件检查，超时则 fail 测试
//
// 使用默认间隔 20ms。
func Eventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	if !WaitForCondition(t, timeout, 20*time.Millisecond, condition) {
		t.Fatalf("等待超时: %s", msg)
	}
}

// AwaitResponse 等待响应完成并返回其错误
func AwaitResponse(t *testing.T, resp *handshake.Response) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultAwaitTimeout)
	defer cancel()
	_, err := resp.Await(ctx)
	return err
}

// RequestLog 记录节点收到的握手请求
type RequestLog struct {
	mu      sync.Mutex
	entries []RequestEntry
}

// RequestEntry 一条入站请求记录
type RequestEntry struct {
	Kind handshake.RequestKind
	From types.PeerAddress
}

// WatchRequests 在节点上注册请求记录器
func WatchRequests(node *handshake.Node) *RequestLog {
	l := &RequestLog{}
	node.OnRequest(func(kind handshake.RequestKind, from types.PeerAddress) {
		l.mu.Lock()
		l.entries = append(l.entries, RequestEntry{Kind: kind, From: from})
		l.mu.Unlock()
	})
	return l
}

// Count 返回指定种类的请求数
func (l *RequestLog) Count(kind handshake.RequestKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Entries 返回记录副本
func (l *RequestLog) Entries() []RequestEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]RequestEntry(nil), l.entries...)
}
