// Package main 提供 dep2p-handshake 命令行入口
//
// 运行一个握手节点，或对远端节点执行一次 ping / discover / probe / broadcast。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	handshake "github.com/dep2p/go-handshake"
	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/pkg/lib/log"
	"github.com/dep2p/go-handshake/pkg/types"
)

var logger = log.Logger("handshake/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 节点参数
	// ─────────────────────────────────────────────────────────────────────
	configFile   = flag.String("config", "", "配置文件路径")
	preset       = flag.String("preset", "default", "预设配置 (default/silent/slow/test)")
	identityFile = flag.String("identity", "", "身份密钥文件路径")
	listenIP     = flag.String("listen-ip", "", "监听地址")
	publicIP     = flag.String("public-ip", "", "对外公布的地址")
	udpPort      = flag.Int("udp-port", 0, "数据报端口（0 = 随机）")
	streamPort   = flag.Int("stream-port", 0, "流端口（0 = 随机）")
	silent       = flag.Bool("silent", false, "不回复普通 ping")
	delay        = flag.Duration("delay", 0, "回复普通 ping 前的延迟（0 = 不延迟）")
	sign         = flag.Bool("sign", false, "对出站请求签名")
	timeout      = flag.Duration("timeout", 0, "等待回复的超时")

	// ─────────────────────────────────────────────────────────────────────
	// 单次操作
	// ─────────────────────────────────────────────────────────────────────
	action    = flag.String("do", "", "执行操作后退出 (ping/ff/discover/probe/broadcast)")
	remote    = flag.String("remote", "", "远端地址 [peer-id@]ip:udp-port[/stream-port]")
	transport = flag.String("transport", "udp", "传输类型 (udp/quic)")
	port      = flag.Uint("port", 0, "广播目标端口")
	count     = flag.Int("count", 1, "重复次数")

	// ─────────────────────────────────────────────────────────────────────
	// 日志与信息
	// ─────────────────────────────────────────────────────────────────────
	logLevel    = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	fxLogs      = flag.Bool("fx-logs", false, "输出 fx 容器事件")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

// runtimeConfig 运行时配置（不属于 config.Config）
type runtimeConfig struct {
	preset string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(handshake.VersionInfo())
		return nil
	}

	opts, err := buildOptions()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("启动握手节点", "version", handshake.Version, "commit", handshake.GitCommit)
	node, err := handshake.Start(ctx, opts...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	fmt.Printf("节点 ID:   %s\n", node.ID())
	fmt.Printf("公布地址:  %s\n", node.Addr())

	if *action != "" {
		return runAction(ctx, node)
	}

	node.OnRequest(func(kind handshake.RequestKind, from types.PeerAddress) {
		logger.Info("收到握手请求", "kind", kind.String(), "from", from.String())
	})
	fmt.Println("节点已启动，按 Ctrl+C 退出")
	<-ctx.Done()
	fmt.Println("\n正在关闭节点...")
	return nil
}

// buildOptions 构建选项
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（DEP2P_HANDSHAKE_* 前缀）
//  3. 配置文件
//  4. 预设默认值
func buildOptions() ([]handshake.Option, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	rt := &runtimeConfig{}
	applyEnvOverrides(cfg, rt)

	opts := []handshake.Option{handshake.WithConfig(cfg)}

	presetName := rt.preset
	if isFlagSet("preset") || presetName == "" {
		presetName = *preset
	}
	opts = append(opts, handshake.WithPreset(presetName))

	if *identityFile != "" {
		opts = append(opts, handshake.WithIdentityFile(*identityFile))
	}
	if *listenIP != "" {
		opts = append(opts, handshake.WithListenIP(*listenIP))
	}
	if *publicIP != "" {
		opts = append(opts, handshake.WithPublicIP(*publicIP))
	}
	if isFlagSet("udp-port") || isFlagSet("stream-port") {
		u, s := cfg.Transport.UDPPort, cfg.Transport.StreamPort
		if isFlagSet("udp-port") {
			u = *udpPort
		}
		if isFlagSet("stream-port") {
			s = *streamPort
		}
		opts = append(opts, handshake.WithListenPorts(u, s))
	}
	if *silent {
		opts = append(opts, handshake.WithReplyEnabled(false))
	}
	if *delay > 0 {
		opts = append(opts, handshake.WithReplyDelay(true, *delay))
	}
	if *sign {
		opts = append(opts, handshake.WithSignRequests(true))
	}
	if *timeout > 0 {
		opts = append(opts, handshake.WithTimeout(*timeout))
	}
	if *logLevel != "" {
		opts = append(opts, handshake.WithLogLevel(*logLevel))
	}
	if *fxLogs {
		opts = append(opts, handshake.WithFxLogs(true))
	}
	return opts, nil
}

// runAction 执行单次操作并打印结果
func runAction(ctx context.Context, node *handshake.Node) error {
	kind, err := parseTransport(*transport)
	if err != nil {
		return err
	}

	var target types.PeerAddress
	var bcastPort uint16
	if *action == "broadcast" {
		if bcastPort, err = parsePort(*port); err != nil {
			return err
		}
	} else if target, err = types.ParsePeerAddress(*remote); err != nil {
		return err
	}

	var failed error
	for i := 0; i < *count; i++ {
		start := time.Now()
		var resp *handshake.Response
		switch *action {
		case "ping":
			resp = node.Ping(ctx, target, kind)
		case "ff":
			resp = node.FireAndForget(ctx, target, kind)
		case "discover":
			resp = node.Discover(ctx, target, kind)
		case "probe":
			resp = node.Probe(ctx, target, kind)
		case "broadcast":
			resp = node.PingBroadcast(ctx, bcastPort)
		default:
			return fmt.Errorf("未知操作 %q", *action)
		}

		reply, err := resp.Await(ctx)
		rtt := time.Since(start)
		switch {
		case err != nil:
			fmt.Printf("[%d] %s 失败: %v (%s)\n", i+1, *action, err, describeErr(err))
			failed = err
		case reply == nil:
			fmt.Printf("[%d] %s 已发送 (%s)\n", i+1, *action, rtt)
		default:
			fmt.Printf("[%d] %s 来自 %s rtt=%s\n", i+1, *action, reply.Sender(), rtt)
			for _, n := range reply.Neighbors() {
				fmt.Printf("    对端观察到的本节点地址: %s\n", n)
			}
		}
	}
	return failed
}

func parseTransport(s string) (types.TransportKind, error) {
	switch s {
	case "udp":
		return types.TransportDatagram, nil
	case "quic":
		return types.TransportStream, nil
	default:
		return types.ParseTransportKind(s)
	}
}

func describeErr(err error) string {
	switch {
	case errors.Is(err, handshake.ErrTimeout):
		return "超时"
	case errors.Is(err, handshake.ErrTransport):
		return "传输失败"
	case errors.Is(err, handshake.ErrCancelled):
		return "已取消"
	case errors.Is(err, handshake.ErrSigningFailed):
		return "签名失败"
	default:
		return "未知"
	}
}

// isFlagSet 检查命令行参数是否显式设置
func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
