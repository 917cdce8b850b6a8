// Package udp 提供数据报传输
//
// 一个 *net.UDPConn 同时用于收发：请求、回复和广播都走同一个 socket，
// 因此对端看到的来源端口就是本节点公布的 UDP 端口。
package udp
