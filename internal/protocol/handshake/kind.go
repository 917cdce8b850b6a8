package handshake

import "github.com/dep2p/go-handshake/internal/core/message"

// RequestKind 握手请求种类
type RequestKind int

const (
	// KindSimplePing 普通 ping（REQUEST_1）
	KindSimplePing RequestKind = iota
	// KindFireAndForget 即发即弃 ping（REQUEST_FF_1）
	KindFireAndForget
	// KindDiscovery 发现 ping（REQUEST_2）
	KindDiscovery
	// KindProbe 探测 ping（REQUEST_3）
	KindProbe

	kindCount
)

var kindTypes = [kindCount]message.Type{
	KindSimplePing:    message.TypeRequest1,
	KindFireAndForget: message.TypeRequestFF1,
	KindDiscovery:     message.TypeRequest2,
	KindProbe:         message.TypeRequest3,
}

var kindNames = [kindCount]string{
	KindSimplePing:    "simple-ping",
	KindFireAndForget: "fire-and-forget",
	KindDiscovery:     "discovery",
	KindProbe:         "probe",
}

// Type 返回该种类对应的消息类型
func (k RequestKind) Type() message.Type {
	if k < 0 || k >= kindCount {
		return 0
	}
	return kindTypes[k]
}

// String 返回字符串表示
func (k RequestKind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// KindOf 将消息类型映射为请求种类
func KindOf(t message.Type) (RequestKind, bool) {
	for k := RequestKind(0); k < kindCount; k++ {
		if kindTypes[k] == t {
			return k, true
		}
	}
	return 0, false
}
