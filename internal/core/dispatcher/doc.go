// Package dispatcher 实现握手消息的收发调度
//
// Dispatcher 是握手服务与传输之间的一层：
//
//   - 出站：SendAndWaitForReply / SendNoWait / SendBroadcast，
//     按关联 ID 登记待决响应并用 clock 驱动超时
//   - 入站：解码、验签、标记传输类型与观察到的来源地址，
//     回复匹配待决响应，请求经限流后交给第一个接受它的 Handler
//   - 回复构造结果是三态的 Outcome：Reply 才会写回线路，
//     且即发即弃请求（REQUEST_FF_1）永远不写回
//
// 每个入站请求的处理运行在独立的 goroutine 上，慢节点延迟不会阻塞其他请求。
package dispatcher
