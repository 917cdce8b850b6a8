package quic

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// ALPN 握手协议标识
const ALPN = "dep2p-handshake"

// newTLSConfigs 由节点私钥生成服务端与客户端 TLS 配置
func newTLSConfigs(priv ed25519.PrivateKey) (server, client *tls.Config, err error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, nil, ErrNoPrivateKey
	}
	pub := priv.Public().(ed25519.PublicKey)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"DeP2P"},
			CommonName:   "DeP2P Handshake " + hex.EncodeToString(pub[:8]),
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(180 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		return nil, nil, fmt.Errorf("创建证书失败: %w", err)
	}
	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
	}

	// 自签名证书没有 CA 可验证，由 VerifyPeerCertificate 检查
	server = &tls.Config{
		Certificates:          []tls.Certificate{cert},
		NextProtos:            []string{ALPN},
		InsecureSkipVerify:    true,
		ClientAuth:            tls.RequireAnyClientCert,
		VerifyPeerCertificate: verifyPeerCertificate,
		MinVersion:            tls.VersionTLS13,
	}
	client = server.Clone()
	client.ClientAuth = tls.NoClientCert
	return server, client, nil
}

// verifyPeerCertificate 校验对端证书为 ed25519 且在有效期内
func verifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("对端未提供证书")
	}
	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("解析证书失败: %w", err)
	}
	if _, ok := cert.PublicKey.(ed25519.PublicKey); !ok {
		return fmt.Errorf("不支持的证书公钥类型: %T", cert.PublicKey)
	}
	if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		return fmt.Errorf("证书自签名无效: %w", err)
	}

	now := time.Now()
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("证书尚未生效: NotBefore=%v", cert.NotBefore)
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("证书已过期: NotAfter=%v", cert.NotAfter)
	}
	return nil
}
