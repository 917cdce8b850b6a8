package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Handshake.ReplyEnabled)
	assert.False(t, cfg.Handshake.ReplyDelay)
	assert.Equal(t, 10*time.Second, cfg.Handshake.DelayInterval.Duration())
	assert.Equal(t, 5*time.Second, cfg.Handshake.Timeout.Duration())
	assert.True(t, cfg.Transport.EnableUDP)
	assert.True(t, cfg.Transport.EnableQUIC)
}

func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"handshake": {"reply_enabled": false, "reply_delay": true, "delay_interval": "250ms", "timeout": 1000000000},
		"transport": {"udp_port": 4100}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.False(t, cfg.Handshake.ReplyEnabled)
	assert.True(t, cfg.Handshake.ReplyDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Handshake.DelayInterval.Duration())
	assert.Equal(t, time.Second, cfg.Handshake.Timeout.Duration())
	assert.Equal(t, 4100, cfg.Transport.UDPPort)
	// 未出现的字段保持默认值
	assert.True(t, cfg.Transport.EnableQUIC)

	_, err = FromJSON([]byte(`{"handshake": {"timeout": "soon"}}`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.json")

	cfg := NewConfig()
	cfg.Handshake.SignRequests = true
	data, err := cfg.ToJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"无传输", func(c *Config) { c.Transport.EnableUDP, c.Transport.EnableQUIC = false, false }},
		{"非法监听地址", func(c *Config) { c.Transport.ListenIP = "not-an-ip" }},
		{"非法公网地址", func(c *Config) { c.Transport.PublicIP = "300.1.1.1" }},
		{"非法广播地址", func(c *Config) { c.Transport.BroadcastIP = "broadcast" }},
		{"端口越界", func(c *Config) { c.Transport.UDPPort = 70000 }},
		{"并发上限为零", func(c *Config) { c.Transport.MaxConcurrentStream = 0 }},
		{"超时为零", func(c *Config) { c.Handshake.Timeout = 0 }},
		{"延迟为零", func(c *Config) { c.Handshake.ReplyDelay, c.Handshake.DelayInterval = true, 0 }},
		{"负速率", func(c *Config) { c.Handshake.InboundRate = -1 }},
		{"私钥非十六进制", func(c *Config) { c.Identity.PrivateKey = "zz" }},
		{"私钥长度错误", func(c *Config) { c.Identity.PrivateKey = "abcd" }},
		{"指标命名空间为空", func(c *Config) { c.Metrics.Namespace = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestApplyPreset(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, ApplyPreset(cfg, "silent"))
	assert.False(t, cfg.Handshake.ReplyEnabled)

	cfg = NewConfig()
	require.NoError(t, ApplyPreset(cfg, "slow"))
	assert.True(t, cfg.Handshake.ReplyDelay)

	cfg = NewConfig()
	require.NoError(t, ApplyPreset(cfg, "test"))
	assert.Equal(t, DefaultTestTimeout, cfg.Handshake.Timeout.Duration())
	assert.Equal(t, "127.0.0.1", cfg.Transport.ListenIP)
	assert.Equal(t, "127.0.0.1", cfg.Transport.BroadcastIP)
	require.NoError(t, cfg.Validate())

	assert.Error(t, ApplyPreset(NewConfig(), "turbo"))
}

func TestDuration_JSON(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(data))

	var back Duration
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, d, back)

	assert.Error(t, back.UnmarshalJSON([]byte(`true`)))
}
