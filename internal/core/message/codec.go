package message

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-handshake/pkg/types"
)

// MaxFrameSize 单条消息的最大编码长度
const MaxFrameSize = 64 * 1024

// 消息字段编号
const (
	fieldID protowire.Number = iota + 1
	fieldCommand
	fieldType
	fieldSender
	fieldRecipient
	fieldNeighbors
	fieldPublicKey
	fieldSignature
)

// 地址字段编号
const (
	addrFieldID protowire.Number = iota + 1
	addrFieldIP
	addrFieldUDPPort
	addrFieldStreamPort
	addrFieldFlags
)

// Marshal 编码消息
func Marshal(m *Message) ([]byte, error) {
	b := appendBody(nil, m)
	if len(m.publicKey) > 0 {
		b = protowire.AppendTag(b, fieldPublicKey, protowire.BytesType)
		b = protowire.AppendBytes(b, m.publicKey)
	}
	if len(m.signature) > 0 {
		b = protowire.AppendTag(b, fieldSignature, protowire.BytesType)
		b = protowire.AppendBytes(b, m.signature)
	}
	if len(b) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	return b, nil
}

// SigningPayload 返回签名覆盖的字节（不含公钥与签名字段）
func SigningPayload(m *Message) []byte {
	return appendBody(nil, m)
}

func appendBody(b []byte, m *Message) []byte {
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, m.id[:])
	b = protowire.AppendTag(b, fieldCommand, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.command))
	b = protowire.AppendTag(b, fieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.typ))
	b = protowire.AppendTag(b, fieldSender, protowire.BytesType)
	b = protowire.AppendBytes(b, appendAddress(nil, m.sender))
	b = protowire.AppendTag(b, fieldRecipient, protowire.BytesType)
	b = protowire.AppendBytes(b, appendAddress(nil, m.recipient))
	for _, n := range m.neighbors {
		b = protowire.AppendTag(b, fieldNeighbors, protowire.BytesType)
		b = protowire.AppendBytes(b, appendAddress(nil, n))
	}
	return b
}

func appendAddress(b []byte, a types.PeerAddress) []byte {
	b = protowire.AppendTag(b, addrFieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, a.ID[:])
	if a.IP.IsValid() {
		b = protowire.AppendTag(b, addrFieldIP, protowire.BytesType)
		b = protowire.AppendBytes(b, a.IP.AsSlice())
	}
	if a.UDPPort != 0 {
		b = protowire.AppendTag(b, addrFieldUDPPort, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(a.UDPPort))
	}
	if a.StreamPort != 0 {
		b = protowire.AppendTag(b, addrFieldStreamPort, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(a.StreamPort))
	}
	if a.Flags != 0 {
		b = protowire.AppendTag(b, addrFieldFlags, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(a.Flags))
	}
	return b
}

// Unmarshal 解码消息
//
// 未知字段会被跳过；缺少关联 ID 的消息视为无效。
func Unmarshal(data []byte) (*Message, error) {
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	m := &Message{}
	var hasID bool
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: id: %v", ErrMalformed, protowire.ParseError(n))
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return nil, fmt.Errorf("%w: id: %v", ErrMalformed, err)
			}
			m.id, hasID = id, true
			data = data[n:]

		case (num == fieldCommand || num == fieldType) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 || v > 0xff {
				return nil, fmt.Errorf("%w: field %d", ErrMalformed, num)
			}
			if num == fieldCommand {
				m.command = Command(v)
			} else {
				m.typ = Type(v)
			}
			data = data[n:]

		case (num == fieldSender || num == fieldRecipient || num == fieldNeighbors) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			addr, err := consumeAddress(v)
			if err != nil {
				return nil, err
			}
			switch num {
			case fieldSender:
				m.sender = addr
			case fieldRecipient:
				m.recipient = addr
			default:
				m.neighbors = append(m.neighbors, addr)
			}
			data = data[n:]

		case (num == fieldPublicKey || num == fieldSignature) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			if num == fieldPublicKey {
				m.publicKey = cloneBytes(v)
			} else {
				m.signature = cloneBytes(v)
			}
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if !hasID {
		return nil, ErrMissingID
	}
	return m, nil
}

func consumeAddress(data []byte) (types.PeerAddress, error) {
	var a types.PeerAddress
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return a, fmt.Errorf("%w: address: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == addrFieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return a, fmt.Errorf("%w: address id", ErrMalformed)
			}
			id, err := types.PeerIDFromBytes(v)
			if err != nil {
				return a, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			a.ID = id
			data = data[n:]

		case num == addrFieldIP && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return a, fmt.Errorf("%w: address ip", ErrMalformed)
			}
			ip, ok := netip.AddrFromSlice(v)
			if !ok {
				return a, fmt.Errorf("%w: address ip length %d", ErrMalformed, len(v))
			}
			a.IP = ip.Unmap()
			data = data[n:]

		case (num == addrFieldUDPPort || num == addrFieldStreamPort || num == addrFieldFlags) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return a, fmt.Errorf("%w: address field %d", ErrMalformed, num)
			}
			switch num {
			case addrFieldUDPPort:
				if v > 0xffff {
					return a, fmt.Errorf("%w: udp port", ErrMalformed)
				}
				a.UDPPort = uint16(v)
			case addrFieldStreamPort:
				if v > 0xffff {
					return a, fmt.Errorf("%w: stream port", ErrMalformed)
				}
				a.StreamPort = uint16(v)
			default:
				a.Flags = types.PeerFlags(v)
			}
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return a, fmt.Errorf("%w: address: %v", ErrMalformed, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return a, nil
}
