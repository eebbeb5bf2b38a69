package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const indexFileName = "index.json"

// Store 按缓存名持久化与重载索引。缓存名由调用方指定，
// 不同名字互不干扰；存储层从不主动删除或过期索引。
type Store interface {
	Persist(ctx context.Context, idx *VectorIndex, name string) error
	// Reload 返回(nil, nil)表示缓存不存在；缓存存在但无法读取是错误
	Reload(ctx context.Context, name string) (*VectorIndex, error)
	List(ctx context.Context) ([]string, error)
}

// LocalStore 文件系统索引存储，每个缓存名一个目录
type LocalStore struct {
	baseDir string
}

// NewLocalStore 创建本地索引存储
func NewLocalStore(baseDir string) *LocalStore {
	if baseDir == "" {
		baseDir = "./data/indexes"
	}
	return &LocalStore{baseDir: baseDir}
}

// Persist 写入索引，同名缓存直接覆盖。
// 已知限制：两个调用方并发Persist同一个名字时结果取决于写入顺序，
// 存储层不做加锁。
func (s *LocalStore) Persist(ctx context.Context, idx *VectorIndex, name string) error {
	if idx == nil || len(idx.Entries) == 0 {
		return fmt.Errorf("index is empty")
	}
	if name == "" {
		name = "default"
	}

	target := filepath.Join(s.baseDir, name)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(target, indexFileName), data, 0o644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	return nil
}

// Reload 重载持久化的索引。目录不存在返回(nil, nil)，
// 目录存在但内容损坏返回错误，两者对调用方是不同的信号。
func (s *LocalStore) Reload(ctx context.Context, name string) (*VectorIndex, error) {
	if name == "" {
		name = "default"
	}

	target := filepath.Join(s.baseDir, name)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(target, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index file: %w", err)
	}

	var idx VectorIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("索引文件损坏: %w", err)
	}
	if len(idx.Entries) == 0 {
		return nil, fmt.Errorf("索引文件损坏: no entries")
	}
	return &idx, nil
}

// List 列出所有持久化的缓存名
func (s *LocalStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list index directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
