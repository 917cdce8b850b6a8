package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 响应结果标签
const (
	ResultSuccess   = "success"
	ResultTimeout   = "timeout"
	ResultTransport = "transport"
	ResultCancelled = "cancelled"
)

// 入站丢弃原因标签
const (
	DropMalformed    = "malformed"
	DropBadSignature = "bad_signature"
	DropRateLimited  = "rate_limited"
	DropUnhandled    = "unhandled"
	DropUnknownReply = "unknown_reply"
)

// Collector 握手 RPC 指标
type Collector struct {
	registry *prometheus.Registry

	requestsSent    *prometheus.CounterVec
	responses       *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	inboundDropped  *prometheus.CounterVec
	signingFailures prometheus.Counter
	pending         prometheus.Gauge
}

// NewCollector 创建指标并注册到新的 Registry
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshake",
			Name:      "requests_sent_total",
			Help:      "Outbound handshake requests by message type and transport",
		}, []string{"type", "transport"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshake",
			Name:      "responses_total",
			Help:      "Completed pending responses by result",
		}, []string{"result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshake",
			Name:      "outcomes_total",
			Help:      "Inbound reply construction outcomes",
		}, []string{"outcome", "reason"}),
		inboundDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshake",
			Name:      "inbound_dropped_total",
			Help:      "Inbound frames dropped before reaching a handler",
		}, []string{"reason"}),
		signingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshake",
			Name:      "signing_failures_total",
			Help:      "Replies that could not be signed",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "handshake",
			Name:      "pending_requests",
			Help:      "Requests waiting for a reply",
		}),
	}
	c.registry.MustRegister(
		c.requestsSent,
		c.responses,
		c.outcomes,
		c.inboundDropped,
		c.signingFailures,
		c.pending,
	)
	return c
}

// Registry 返回指标注册表
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RequestSent 记录一次出站请求
func (c *Collector) RequestSent(msgType, transport string) {
	if c == nil {
		return
	}
	c.requestsSent.WithLabelValues(msgType, transport).Inc()
}

// ResponseCompleted 记录一次响应完成
func (c *Collector) ResponseCompleted(result string) {
	if c == nil {
		return
	}
	c.responses.WithLabelValues(result).Inc()
}

// Outcome 记录一次回复构造结果
func (c *Collector) Outcome(outcome, reason string) {
	if c == nil {
		return
	}
	c.outcomes.WithLabelValues(outcome, reason).Inc()
}

// InboundDropped 记录一次入站丢弃
func (c *Collector) InboundDropped(reason string) {
	if c == nil {
		return
	}
	c.inboundDropped.WithLabelValues(reason).Inc()
}

// SigningFailed 记录一次签名失败
func (c *Collector) SigningFailed() {
	if c == nil {
		return
	}
	c.signingFailures.Inc()
}

// PendingAdd 调整待回复请求数
func (c *Collector) PendingAdd(delta float64) {
	if c == nil {
		return
	}
	c.pending.Add(delta)
}
