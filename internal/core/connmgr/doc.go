// Package connmgr 实现连接资源提供者
//
// Provider 为每次出站发送借出一个传输许可。数据报与流传输各自拥有
// 独立的并发上限（golang.org/x/sync/semaphore），握手层在发送调用
// 期间持有许可，调用返回前归还。
//
// 使用示例：
//
//	p := connmgr.New(connmgr.DefaultConfig())
//	h, err := p.Acquire(ctx, types.TransportDatagram)
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
package connmgr
