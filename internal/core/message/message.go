package message

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"

	"github.com/dep2p/go-handshake/pkg/types"
)

// ============================================================================
//                              Command / Type
// ============================================================================

// Command 消息命令
type Command uint8

const (
	// CommandPing 握手/存活命令
	CommandPing Command = iota + 1
)

// String 返回命令名
func (c Command) String() string {
	switch c {
	case CommandPing:
		return "PING"
	default:
		return fmt.Sprintf("COMMAND(%d)", uint8(c))
	}
}

// Type 消息类型
type Type uint8

const (
	// TypeRequest1 普通 ping 请求
	TypeRequest1 Type = iota + 1
	// TypeRequest2 地址发现请求
	TypeRequest2
	// TypeRequest3 探测请求
	TypeRequest3
	// TypeRequestFF1 即发即弃请求
	TypeRequestFF1
	// TypeOK 成功回复
	TypeOK
)

// String 返回类型名
func (t Type) String() string {
	switch t {
	case TypeRequest1:
		return "REQUEST_1"
	case TypeRequest2:
		return "REQUEST_2"
	case TypeRequest3:
		return "REQUEST_3"
	case TypeRequestFF1:
		return "REQUEST_FF_1"
	case TypeOK:
		return "OK"
	default:
		return fmt.Sprintf("TYPE(%d)", uint8(t))
	}
}

// IsRequest 是否为请求类型
func (t Type) IsRequest() bool {
	switch t {
	case TypeRequest1, TypeRequest2, TypeRequest3, TypeRequestFF1:
		return true
	default:
		return false
	}
}

// IsFireAndForget 是否为即发即弃请求（协议不定义回复）
func (t Type) IsFireAndForget() bool {
	return t == TypeRequestFF1
}

// IsReply 是否为回复类型
func (t Type) IsReply() bool {
	return t == TypeOK
}

// ============================================================================
//                              Message
// ============================================================================

// Message 消息信封
type Message struct {
	id        uuid.UUID
	command   Command
	typ       Type
	sender    types.PeerAddress
	recipient types.PeerAddress
	neighbors []types.PeerAddress
	publicKey []byte
	signature []byte

	// transport 消息到达（或将要发出）的传输类型，不参与编码
	transport types.TransportKind
}

// New 创建消息，并分配新的关联 ID
func New(command Command, typ Type, sender, recipient types.PeerAddress) *Message {
	return &Message{
		id:        uuid.New(),
		command:   command,
		typ:       typ,
		sender:    sender,
		recipient: recipient,
	}
}

// ID 返回关联 ID
func (m *Message) ID() uuid.UUID { return m.id }

// Command 返回命令
func (m *Message) Command() Command { return m.command }

// Type 返回类型
func (m *Message) Type() Type { return m.typ }

// Sender 返回发送方地址
func (m *Message) Sender() types.PeerAddress { return m.sender }

// Recipient 返回接收方地址
func (m *Message) Recipient() types.PeerAddress { return m.recipient }

// Transport 返回传输类型
func (m *Message) Transport() types.TransportKind { return m.transport }

// IsDatagram 是否经由数据报传输
func (m *Message) IsDatagram() bool { return m.transport == types.TransportDatagram }

// Neighbors 返回邻居地址列表的副本
func (m *Message) Neighbors() []types.PeerAddress {
	if len(m.neighbors) == 0 {
		return nil
	}
	out := make([]types.PeerAddress, len(m.neighbors))
	copy(out, m.neighbors)
	return out
}

// PublicKey 返回签名公钥
func (m *Message) PublicKey() []byte { return cloneBytes(m.publicKey) }

// Signature 返回签名
func (m *Message) Signature() []byte { return cloneBytes(m.signature) }

// IsSigned 是否携带签名
func (m *Message) IsSigned() bool { return len(m.signature) > 0 }

// WithID 返回使用指定关联 ID 的副本
func (m *Message) WithID(id uuid.UUID) *Message {
	c := m.clone()
	c.id = id
	return c
}

// WithNeighbors 返回设置了邻居列表的副本
func (m *Message) WithNeighbors(addrs ...types.PeerAddress) *Message {
	c := m.clone()
	c.neighbors = append([]types.PeerAddress(nil), addrs...)
	return c
}

// WithSignature 返回带签名的副本
func (m *Message) WithSignature(publicKey, signature []byte) *Message {
	c := m.clone()
	c.publicKey = cloneBytes(publicKey)
	c.signature = cloneBytes(signature)
	return c
}

// WithTransport 返回标记了传输类型的副本
func (m *Message) WithTransport(kind types.TransportKind) *Message {
	c := m.clone()
	c.transport = kind
	return c
}

// WithObservedSender 返回以传输层观测地址替换发送方地址的副本
//
// 需要先通过 WithTransport 标记传输类型。
func (m *Message) WithObservedSender(observed netip.AddrPort) *Message {
	c := m.clone()
	c.sender = c.sender.WithObserved(c.transport, observed)
	return c
}

// String 返回消息摘要（用于日志）
func (m *Message) String() string {
	return fmt.Sprintf("%s/%s id=%s %s->%s", m.command, m.typ,
		m.id.String()[:8], m.sender, m.recipient)
}

func (m *Message) clone() *Message {
	c := *m
	if m.neighbors != nil {
		c.neighbors = append([]types.PeerAddress(nil), m.neighbors...)
	}
	return &c
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
