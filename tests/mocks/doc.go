// Package mocks 提供统一的测试 Mock 实现
//
// 所有 Mock 都采用“可覆盖函数字段 + 调用记录”的形式：
// 设置 XxxFunc 改变行为，读取调用记录断言交互。调用记录受互斥锁保护，
// 可以在并发测试中使用。
//
// # 传输 Mock
//
//   - MockTransport: 模拟 interfaces.Transport，记录发送与广播，支持注入入站帧
//   - MockResponder: 模拟 interfaces.Responder，记录回复
//
// # 连接资源 Mock
//
//   - MockProvider: 模拟 interfaces.ConnectionProvider
//   - MockHandle: 模拟 interfaces.ConnectionHandle
//
// # 身份 Mock
//
//   - MockSigner: 模拟 interfaces.Signer
//   - MockAddressProvider: 模拟 interfaces.AddressProvider
//
// # 使用示例
//
//	tr := mocks.NewMockTransport(types.TransportDatagram, netip.MustParseAddrPort("127.0.0.1:4000"))
//	tr.SendFunc = func(ctx context.Context, to netip.AddrPort, data []byte, expectReply bool) error {
//	    return errors.New("unreachable")
//	}
package mocks
