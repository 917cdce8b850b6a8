package dispatcher

import "errors"

var (
	// ErrDispatcherClosed 调度器已关闭
	ErrDispatcherClosed = errors.New("dispatcher: closed")

	// ErrNoTransport 句柄对应的传输未启用
	ErrNoTransport = errors.New("dispatcher: transport not enabled")

	// ErrBroadcastNeedsDatagram 广播只能走数据报传输
	ErrBroadcastNeedsDatagram = errors.New("dispatcher: broadcast requires datagram transport")

	// ErrDuplicateRequest 关联 ID 已在等待回复
	ErrDuplicateRequest = errors.New("dispatcher: duplicate correlation id")

	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("dispatcher: already started")
)
