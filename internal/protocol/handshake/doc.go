// Package handshake 实现握手 RPC：存活检测与汇合
//
// # 请求类型
//
//   - REQUEST_1    普通 ping，等待 OK
//   - REQUEST_FF_1 即发即弃 ping，本地发送被接受即完成，对端不回复
//   - REQUEST_2    发现 ping，携带本节点地址；OK 的邻居列表是对端观察到的本节点地址
//   - REQUEST_3    探测 ping，对端除回复 OK 外还会单独向本节点发一个即发即弃 ping
//
// 每种请求都可以走数据报或流传输。出站操作立即返回 *future.Response，
// 不会阻塞等待对端。
//
// # 回复构造
//
// HandleRequest 按 RequestKind 查表分派到各自的回复函数，结果是三态的
// dispatcher.Outcome。普通 ping 先做自广播检查，再按配置决定是否延迟、
// 是否回复；延迟用 clock.AfterFunc 调度，不占用 goroutine。
//
// 请求带签名时回复必须签名，签名失败返回 OutcomeError，绝不退化为未签名回复。
//
// # 探测的连接资源绑定
//
// 探测回复触发的即发即弃 ping 使用该请求到达路径对应的 provider
// （InboundRequest.Provider），缺省时使用服务的默认 provider。
// 出站探测借用的 provider 记录在它自己的 Response 上，服务不保存任何
// 跨调用共享的 provider，并发探测互不影响。
package handshake
