package identity

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-handshake/config"
	"github.com/dep2p/go-handshake/pkg/interfaces"
	"github.com/dep2p/go-handshake/pkg/lib/log"
)

// 包级别日志实例
var logger = log.Logger("core/identity")

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Identity *Identity
	Signer   interfaces.Signer
	KeyBook  *KeyBook
}

// ProvideServices 提供模块服务
//
// 优先级：PrivateKey > KeyFile > 随机生成
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := config.DefaultIdentityConfig()
	if input.Config != nil {
		cfg = input.Config.Identity
	}

	var (
		id  *Identity
		err error
	)
	switch {
	case cfg.PrivateKey != "":
		seed, decErr := hex.DecodeString(cfg.PrivateKey)
		if decErr != nil {
			return ModuleOutput{}, fmt.Errorf("decode private key: %w", decErr)
		}
		id, err = FromSeed(seed)
	case cfg.KeyFile != "":
		id, err = LoadOrCreate(cfg.KeyFile, cfg.AutoCreate)
	default:
		id, err = Generate()
	}
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("加载身份失败: %w", err)
	}

	kb, err := NewKeyBook(DefaultKeyBookSize)
	if err != nil {
		return ModuleOutput{}, err
	}

	logger.Debug("身份就绪", "peerID", id.ID().ShortString())
	return ModuleOutput{
		Identity: id,
		Signer:   id,
		KeyBook:  kb,
	}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideServices),
	)
}
