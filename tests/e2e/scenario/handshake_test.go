package scenario

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handshake "github.com/dep2p/go-handshake"
	"github.com/dep2p/go-handshake/pkg/types"
	"github.com/dep2p/go-handshake/tests/mocks"
	"github.com/dep2p/go-handshake/tests/testutil"
)

var transports = []types.TransportKind{types.TransportDatagram, types.TransportStream}

// counterValue 汇总某个计数器在指定标签下的值
func counterValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m, labels) {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func matchLabels(m *dto.Metric, want map[string]string) bool {
	for k, v := range want {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ============================================================================
//                              场景
// ============================================================================

// 节点 A 向节点 B 发送普通 ping，B 回复关联 ID 相同的 OK
func TestScenario_PingBetweenFixedIdentities(t *testing.T) {
	a := testutil.NewTestNode(t).WithSeed(testutil.DefaultTestSeedA).Start()
	b := testutil.NewTestNode(t).WithSeed(testutil.DefaultTestSeedB).Start()
	require.NotEqual(t, a.ID(), b.ID())

	for _, kind := range transports {
		t.Run(kind.String(), func(t *testing.T) {
			resp := a.Ping(context.Background(), b.Addr(), kind)
			require.NoError(t, testutil.AwaitResponse(t, resp))

			assert.Equal(t, resp.Request().ID(), resp.Reply().ID())
			assert.Equal(t, b.ID(), resp.Reply().Sender().ID)
			assert.Equal(t, a.ID(), resp.Reply().Recipient().ID)
		})
	}
}

// 即发即弃 ping 在本地发送被接受时完成，B 不回复
func TestScenario_FireAndForgetGetsNoReply(t *testing.T) {
	a := testutil.NewTestNode(t).WithMetrics().Start()
	b := testutil.NewTestNode(t).Start()
	log := testutil.WatchRequests(b)

	for _, kind := range transports {
		resp := a.FireAndForget(context.Background(), b.Addr(), kind)
		require.NoError(t, testutil.AwaitResponse(t, resp))
		assert.Nil(t, resp.Reply())
	}

	testutil.Eventually(t, 2*time.Second, func() bool {
		return log.Count(handshake.KindFireAndForget) == len(transports)
	}, "B 应收到两个即发即弃 ping")

	// 若 B 回复，A 会把无人等待的回复计为丢弃
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, counterValue(t, a.Metrics(), "dep2p_handshake_inbound_dropped_total",
		map[string]string{"reason": "unknown_reply"}))
	assert.Equal(t, 0, a.PendingCount())
}

// 节点收到自己的广播不回复，但仍正常回复其他节点
func TestScenario_SelfBroadcastIgnored(t *testing.T) {
	a := testutil.NewTestNode(t).Start()
	b := testutil.NewTestNode(t).WithOptions(handshake.WithTimeout(300 * time.Millisecond)).Start()
	log := testutil.WatchRequests(b)

	self := b.PingBroadcast(context.Background(), b.Addr().UDPPort)
	assert.ErrorIs(t, testutil.AwaitResponse(t, self), handshake.ErrTimeout)

	entries := log.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, b.ID(), entries[0].From.ID)

	require.NoError(t, testutil.AwaitResponse(t, a.Ping(context.Background(), b.Addr(), types.TransportDatagram)))
}

// 发现 ping 返回的邻居即对端接收请求时观察到的发送方地址
func TestScenario_DiscoverRoundTrip(t *testing.T) {
	a := testutil.NewTestNode(t).Start()
	b := testutil.NewTestNode(t).Start()
	log := testutil.WatchRequests(b)

	for _, kind := range transports {
		t.Run(kind.String(), func(t *testing.T) {
			resp := a.Discover(context.Background(), b.Addr(), kind)
			require.NoError(t, testutil.AwaitResponse(t, resp))

			neighbors := resp.Reply().Neighbors()
			require.Len(t, neighbors, 1)

			var observed types.PeerAddress
			for _, e := range log.Entries() {
				if e.Kind == handshake.KindDiscovery {
					observed = e.From
				}
			}
			assert.Equal(t, observed, neighbors[0])
		})
	}
}

// 并发探测各自绑定自己的 provider，补发目标互不干扰
func TestScenario_ConcurrentProbes(t *testing.T) {
	a := testutil.NewTestNode(t).Start()
	b := testutil.NewTestNode(t).Start()
	c := testutil.NewTestNode(t).Start()
	log := testutil.WatchRequests(a)

	peers := []*handshake.Node{b, c}
	providers := []*mocks.MockProvider{mocks.NewMockProvider("b"), mocks.NewMockProvider("c")}
	resps := make([]*handshake.Response, len(peers))

	var wg sync.WaitGroup
	for i := range peers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resps[i] = a.Probe(context.Background(), peers[i].Addr(), types.TransportDatagram,
				handshake.UsingProvider(providers[i]))
		}(i)
	}
	wg.Wait()

	for i, resp := range resps {
		require.NoError(t, testutil.AwaitResponse(t, resp))
		assert.Same(t, providers[i], resp.Provider())
		assert.Len(t, providers[i].Acquired(), 1)
		assert.Equal(t, 1, providers[i].Handles()[0].Releases())
	}

	// B 和 C 各补发一个即发即弃 ping
	testutil.Eventually(t, 2*time.Second, func() bool {
		return log.Count(handshake.KindFireAndForget) == 2
	}, "A 应收到两个补发的即发即弃 ping")

	from := map[types.PeerID]bool{}
	for _, e := range log.Entries() {
		from[e.From.ID] = true
	}
	assert.True(t, from[b.ID()])
	assert.True(t, from[c.ID()])
}

// 慢节点：延迟期间其他请求不受影响
func TestScenario_SlowPeerDoesNotBlockOthers(t *testing.T) {
	a := testutil.NewTestNode(t).Start()
	slow := testutil.NewTestNode(t).WithReplyDelay(500 * time.Millisecond).Start()

	start := time.Now()
	pings := make([]*handshake.Response, 5)
	for i := range pings {
		pings[i] = a.Ping(context.Background(), slow.Addr(), types.TransportDatagram)
	}

	// 发现请求不经过延迟
	require.NoError(t, testutil.AwaitResponse(t, a.Discover(context.Background(), slow.Addr(), types.TransportDatagram)))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	for _, p := range pings {
		require.NoError(t, testutil.AwaitResponse(t, p))
	}
	// 五个延迟并行计时
	assert.Less(t, time.Since(start), 2*time.Second)
}

// 身份文件在重启后保持同一 PeerID
func TestScenario_RestartKeepsIdentity(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "node.key")

	first, err := handshake.Start(context.Background(), handshake.WithPreset(testutil.DefaultTestPreset), handshake.WithIdentityFile(keyFile))
	require.NoError(t, err)
	id := first.ID()
	require.NoError(t, first.Close())

	second := testutil.NewTestNode(t).WithOptions(handshake.WithIdentityFile(keyFile)).Start()
	assert.Equal(t, id, second.ID())
}
