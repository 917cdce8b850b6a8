// Package future 实现待决响应（PendingResponse）
//
// 每个出站请求对应一个 Response，它恰好完成一次：
// 收到回复（Complete）或失败（Fail：超时、传输错误、取消）。
// 第一次完成生效，之后的完成尝试返回 false 且不产生任何可观测变化。
package future

import (
	"context"
	"sync"

	"github.com/dep2p/go-handshake/internal/core/message"
	"github.com/dep2p/go-handshake/pkg/interfaces"
)

// Response 待决响应
type Response struct {
	request  *message.Message
	provider interfaces.ConnectionProvider

	done chan struct{}

	mu        sync.Mutex
	completed bool
	reply     *message.Message
	err       error
	listeners []func(*Response)
}

// New 创建待决响应
//
// provider 为本次调用借用的连接资源提供者，可为 nil。
func New(request *message.Message, provider interfaces.ConnectionProvider) *Response {
	return &Response{
		request:  request,
		provider: provider,
		done:     make(chan struct{}),
	}
}

// Failed 创建一个已经失败的响应
func Failed(request *message.Message, provider interfaces.ConnectionProvider, err error) *Response {
	r := New(request, provider)
	r.Fail(err)
	return r
}

// Request 返回原始请求
func (r *Response) Request() *message.Message { return r.request }

// Provider 返回本次调用绑定的连接资源提供者
func (r *Response) Provider() interfaces.ConnectionProvider { return r.provider }

// Done 返回完成信号通道
func (r *Response) Done() <-chan struct{} { return r.done }

// Complete 以回复完成
//
// reply 可为 nil：即发即弃请求在本地发送被接受时即以 nil 完成。
func (r *Response) Complete(reply *message.Message) bool {
	return r.finish(reply, nil)
}

// Fail 以错误完成
func (r *Response) Fail(err error) bool {
	if err == nil {
		err = ErrTransport
	}
	return r.finish(nil, err)
}

// Cancel 放弃该请求
func (r *Response) Cancel() bool {
	return r.Fail(ErrCancelled)
}

func (r *Response) finish(reply *message.Message, err error) bool {
	r.mu.Lock()
	if r.completed {
		r.mu.Unlock()
		return false
	}
	r.completed = true
	r.reply = reply
	r.err = err
	listeners := r.listeners
	r.listeners = nil
	close(r.done)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(r)
	}
	return true
}

// OnComplete 注册完成回调
//
// 若已完成，回调立即在当前 goroutine 执行。
func (r *Response) OnComplete(fn func(*Response)) {
	r.mu.Lock()
	if !r.completed {
		r.listeners = append(r.listeners, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	fn(r)
}

// Await 等待完成
//
// ctx 结束时返回 ctx.Err()，但不会使响应完成；需要放弃请求时调用 Cancel。
func (r *Response) Await(ctx context.Context) (*message.Message, error) {
	select {
	case <-r.done:
		return r.Reply(), r.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reply 返回回复消息（未完成或失败时为 nil）
func (r *Response) Reply() *message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reply
}

// Err 返回失败原因（未完成或成功时为 nil）
func (r *Response) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// IsCompleted 是否已完成
func (r *Response) IsCompleted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// IsSuccess 是否成功完成
func (r *Response) IsSuccess() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed && r.err == nil
}
