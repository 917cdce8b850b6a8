package message

import "errors"

// 定义错误
var (
	// ErrMalformed 消息格式错误
	ErrMalformed = errors.New("message: malformed frame")

	// ErrFrameTooLarge 消息超过最大帧长度
	ErrFrameTooLarge = errors.New("message: frame too large")

	// ErrMissingID 缺少关联 ID
	ErrMissingID = errors.New("message: missing correlation id")

	// ErrNilSigner 签名器为空
	ErrNilSigner = errors.New("message: nil signer")
)
