package udp

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("udp: transport closed")

	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("udp: transport already started")

	// ErrFrameTooLarge 帧超过单个数据报上限
	ErrFrameTooLarge = errors.New("udp: frame too large")
)
