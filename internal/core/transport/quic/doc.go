// Package quic 提供基于 QUIC 的流传输
//
// # 帧格式
//
// 每条双向流承载一个请求和至多一个回复，帧为 unsigned varint 长度前缀
// 加消息字节（github.com/multiformats/go-varint）。
//
// # 连接
//
// 监听与拨号共享同一个 UDP socket（quic.Transport），出站连接按远端
// 地址缓存，连接关闭后自动移出缓存。
//
// # TLS
//
// 证书由节点 ed25519 私钥自签名，对端证书只校验公钥类型与有效期，
// 身份认证由消息签名完成。
package quic
