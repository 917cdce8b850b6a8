// Package handshake 提供 dep2p 握手 RPC 节点
//
// 握手 RPC 是节点间最基础的存活检测与会合协议，建立在数据报（UDP）
// 与流（QUIC）两种传输之上。它回答三个问题：
//
//   - 对端是否在线（普通 ping / 即发即弃 ping / 广播 ping）
//   - 对端看到的本节点地址是什么（发现 ping）
//   - 本节点能否被对端主动连通（探测 ping）
//
// # 快速开始
//
//	node, err := handshake.Start(ctx,
//	    handshake.WithListenPorts(7700, 7701),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	resp := node.Ping(ctx, remote, types.TransportDatagram)
//	reply, err := resp.Await(ctx)
//
// 所有出站操作立即返回 *Response，不阻塞等待对端；
// 结果通过 Await / Done / OnComplete 获取。失败原因用 errors.Is 区分：
// ErrTimeout、ErrTransport、ErrCancelled、ErrSigningFailed。
//
// # 回复行为
//
// 节点默认回复所有握手请求。WithReplyEnabled(false) 让节点不再回复
// 普通 ping（发现与探测仍会回复）；WithReplyDelay 让节点在回复普通
// ping 前等待一段时间，用于模拟慢节点。
//
// # 文件组织
//
//   - node.go: Node 门面与出站操作
//   - options.go: 配置选项
//   - fx.go: 模块装配
//   - errors.go: 公共错误
package handshake
