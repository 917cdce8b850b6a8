package future

import (
	"errors"
	"fmt"
)

// 失败原因分类
//
// 调用方通过 errors.Is 区分，以便对超时和传输失败采用不同的重试策略。
var (
	// ErrTransport 发送无法发起或连接资源无法获取
	ErrTransport = errors.New("transport failure")

	// ErrTimeout 在超时窗口内未收到匹配的回复
	ErrTimeout = errors.New("response timeout")

	// ErrCancelled 调用方放弃了该请求
	ErrCancelled = errors.New("request cancelled")
)

// TransportFailure 将底层错误包装为传输失败
func TransportFailure(err error) error {
	if err == nil {
		return ErrTransport
	}
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
