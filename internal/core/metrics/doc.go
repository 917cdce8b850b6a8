// Package metrics 提供握手 RPC 的 Prometheus 指标
//
// 所有指标注册在独立的 prometheus.Registry 上，由调用方决定如何暴露
// （例如挂到 promhttp.HandlerFor）。禁用时模块提供 nil *Collector，
// 其所有方法对 nil 接收者都是空操作。
//
// # 指标
//
//   - handshake_requests_sent_total{type,transport}
//   - handshake_responses_total{result}
//   - handshake_outcomes_total{outcome,reason}
//   - handshake_inbound_dropped_total{reason}
//   - handshake_signing_failures_total
//   - handshake_pending_requests
package metrics
