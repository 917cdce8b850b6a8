package types

// ============================================================================
//                              TransportKind - 传输类型
// ============================================================================

// TransportKind 传输类型
type TransportKind int

const (
	// TransportDatagram 不可靠数据报（UDP）
	TransportDatagram TransportKind = iota + 1
	// TransportStream 可靠流（QUIC stream）
	TransportStream
)

// String 返回传输类型的字符串表示
func (k TransportKind) String() string {
	switch k {
	case TransportDatagram:
		return "udp"
	case TransportStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Valid 检查传输类型是否合法
func (k TransportKind) Valid() bool {
	return k == TransportDatagram || k == TransportStream
}

// ParseTransportKind 从字符串解析传输类型
func ParseTransportKind(s string) (TransportKind, error) {
	switch s {
	case "udp", "datagram":
		return TransportDatagram, nil
	case "stream", "quic", "tcp":
		return TransportStream, nil
	default:
		return 0, ErrUnknownTransport
	}
}

// ============================================================================
//                              PeerFlags - 传输能力标志
// ============================================================================

// PeerFlags 节点传输能力标志
type PeerFlags uint8

const (
	// FlagFirewalledUDP 节点的数据报端口不可从外部到达
	FlagFirewalledUDP PeerFlags = 1 << iota
	// FlagFirewalledStream 节点的流端口不可从外部到达
	FlagFirewalledStream
)

// Has 检查是否包含指定标志
func (f PeerFlags) Has(flag PeerFlags) bool {
	return f&flag != 0
}
