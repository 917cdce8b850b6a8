package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load 从文件加载身份（文件内容为十六进制种子）
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode key file %s: %w", path, err)
	}
	return FromSeed(seed)
}

// Save 将身份种子写入文件（权限 0600）
func Save(id *Identity, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create key dir: %w", err)
		}
	}
	return os.WriteFile(path, []byte(hex.EncodeToString(id.Seed())+"\n"), 0o600)
}

// LoadOrCreate 加载身份，文件不存在且 autoCreate 时生成并保存新身份
func LoadOrCreate(path string, autoCreate bool) (*Identity, error) {
	id, err := Load(path)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, os.ErrNotExist) || !autoCreate {
		return nil, err
	}

	id, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := Save(id, path); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}
	logger.Info("已创建新身份", "path", path, "peerID", id.ID().ShortString())
	return id, nil
}
