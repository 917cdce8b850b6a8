// Package message 定义握手层的消息信封
//
// Message 是不可变的请求/响应单元：创建后交给传输层即不再修改，
// 所有 With* 方法都返回副本，回复总是新建的信封。
//
// # 线上格式
//
// 使用 protobuf 线格式（protowire）手工编码：
//
//	1 id         bytes(16)   关联 ID（UUID）
//	2 command    varint
//	3 type       varint
//	4 sender     PeerAddress
//	5 recipient  PeerAddress
//	6 neighbors  repeated PeerAddress
//	7 public_key bytes
//	8 signature  bytes
//
// PeerAddress: 1 id, 2 ip, 3 udp_port, 4 stream_port, 5 flags。
// 签名覆盖除 7/8 之外的全部字段（见 SigningPayload）。
package message
