package mocks

import (
	"sync"

	"github.com/dep2p/go-handshake/pkg/types"
)

// MockSigner 模拟 Signer 接口实现
type MockSigner struct {
	PublicKeyValue []byte

	SignFunc func(data []byte) ([]byte, error)

	mu        sync.Mutex
	signCalls int
}

// NewMockSigner 创建 MockSigner
func NewMockSigner() *MockSigner {
	return &MockSigner{PublicKeyValue: []byte("mock-public-key")}
}

// PublicKey 返回公钥
func (s *MockSigner) PublicKey() []byte {
	return s.PublicKeyValue
}

// Sign 默认返回固定签名
func (s *MockSigner) Sign(data []byte) ([]byte, error) {
	s.mu.Lock()
	s.signCalls++
	s.mu.Unlock()
	if s.SignFunc != nil {
		return s.SignFunc(data)
	}
	return []byte("mock-signature"), nil
}

// SignCalls 返回 Sign 调用次数
func (s *MockSigner) SignCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signCalls
}

// MockAddressProvider 模拟 AddressProvider 接口实现
type MockAddressProvider struct {
	Address types.PeerAddress
}

// AdvertisedAddress 返回固定地址
func (m *MockAddressProvider) AdvertisedAddress() types.PeerAddress {
	return m.Address
}
