package message

import (
	"fmt"

	"github.com/dep2p/go-handshake/pkg/interfaces"
)

// Sign 返回使用 signer 签名后的副本
//
// 签名失败时返回错误，绝不退化为未签名消息。
func Sign(m *Message, signer interfaces.Signer) (*Message, error) {
	if signer == nil {
		return nil, ErrNilSigner
	}
	sig, err := signer.Sign(SigningPayload(m))
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", m.typ, err)
	}
	return m.WithSignature(signer.PublicKey(), sig), nil
}

// SignIfRequested 仅在 requested 为 true 时签名
func SignIfRequested(m *Message, signer interfaces.Signer, requested bool) (*Message, error) {
	if !requested {
		return m, nil
	}
	return Sign(m, signer)
}
