package interfaces

import "github.com/dep2p/go-handshake/pkg/types"

// Signer 本节点的密钥材料
type Signer interface {
	// PublicKey 返回公钥的原始字节
	PublicKey() []byte

	// Sign 对数据签名
	Sign(data []byte) ([]byte, error)
}

// AddressProvider 本节点地址来源
type AddressProvider interface {
	// AdvertisedAddress 返回本节点对外公布的地址
	AdvertisedAddress() types.PeerAddress
}
