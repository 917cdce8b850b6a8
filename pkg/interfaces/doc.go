// Package interfaces 定义握手层的外部协作者接口
//
// 握手 RPC 层只通过这些窄接口消费外部能力：
//   - ConnectionProvider: 为一次发送借出传输资源
//   - Signer: 使用本节点密钥对数据签名
//   - AddressProvider: 返回本节点对外公布的地址
//
// 接口定义遵循 "使用方定义" 原则，只包含握手层实际调用的方法。
package interfaces
