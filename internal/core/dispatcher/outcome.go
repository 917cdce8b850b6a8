package dispatcher

import (
	"context"

	"github.com/dep2p/go-handshake/internal/core/message"
	"github.com/dep2p/go-handshake/pkg/interfaces"
)

// ============================================================================
//                              回复构造结果
// ============================================================================

// OutcomeKind 回复构造结果类型
type OutcomeKind int

const (
	// OutcomeReply 有回复
	OutcomeReply OutcomeKind = iota
	// OutcomeSuppressed 不回复
	OutcomeSuppressed
	// OutcomeError 回复构造失败
	OutcomeError
)

// String 返回字符串表示
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReply:
		return "reply"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Reason 不回复的原因
type Reason int

const (
	// ReasonNone 无
	ReasonNone Reason = iota
	// ReasonSelfBroadcast 自己发出的广播
	ReasonSelfBroadcast
	// ReasonDisabled 配置关闭了回复
	ReasonDisabled
	// ReasonProtocolMismatch 通过了分发谓词但类型组合无法识别
	ReasonProtocolMismatch
)

// String 返回字符串表示
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonSelfBroadcast:
		return "self_broadcast"
	case ReasonDisabled:
		return "disabled"
	case ReasonProtocolMismatch:
		return "protocol_mismatch"
	default:
		return "unknown"
	}
}

// Outcome 回复构造结果
type Outcome struct {
	Kind   OutcomeKind
	Reply  *message.Message
	Reason Reason
	Err    error
}

// Reply 构造有回复的结果
func Reply(m *message.Message) Outcome {
	return Outcome{Kind: OutcomeReply, Reply: m}
}

// Suppressed 构造不回复的结果
func Suppressed(reason Reason) Outcome {
	return Outcome{Kind: OutcomeSuppressed, Reason: reason}
}

// Failed 构造失败结果
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

// ============================================================================
//                              请求处理器
// ============================================================================

// InboundRequest 交给 Handler 的入站请求
type InboundRequest struct {
	// Message 已验签、已标记传输类型与观察地址的请求
	Message *message.Message

	// Provider 该请求到达路径对应的连接资源提供者
	Provider interfaces.ConnectionProvider
}

// Handler 入站请求处理器
type Handler interface {
	// CheckMessage 是否处理该消息
	CheckMessage(m *message.Message) bool

	// HandleRequest 构造回复，结果通过 done 恰好交付一次
	//
	// done 可以在 HandleRequest 返回后异步调用。
	HandleRequest(ctx context.Context, req InboundRequest, done func(Outcome))
}
