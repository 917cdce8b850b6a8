// Package transport 装配握手消息的传输
//
// 按配置创建数据报传输（udp 子包）与流传输（quic 子包），
// 以 Set 的形式交给 dispatcher，并由 Advertiser 计算本节点对外公布的地址。
//
// # Fx 模块集成
//
//	app := fx.New(
//	    identity.Module(),
//	    transport.Module(),
//	    fx.Invoke(func(set *transport.Set) {
//	        for _, t := range set.All() {
//	            fmt.Println(t.Kind(), t.LocalAddr())
//	        }
//	    }),
//	)
package transport
