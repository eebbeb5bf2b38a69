package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address          string
	Username         string
	Password         string
	Database         string
	CollectionPrefix string
	VectorSize       int
	UseTLS           bool
	Timeout          time.Duration
}

// MilvusStore 将索引持久化到Milvus，每个缓存名一个collection。
// 检索仍在重载后的VectorIndex上执行，保证与本地存储一致的排序行为。
type MilvusStore struct {
	milvusClient     client.Client
	collectionPrefix string
	vectorSize       int
}

// NewMilvusStore 创建Milvus索引存储
func NewMilvusStore(opts MilvusOptions) (*MilvusStore, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.CollectionPrefix == "" {
		opts.CollectionPrefix = "docchat"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 1536
	}
	if opts.Database == "" {
		opts.Database = "default"
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	milvusClient, err := client.NewClient(ctx, client.Config{
		Address:       opts.Address,
		DBName:        opts.Database,
		Username:      opts.Username,
		Password:      opts.Password,
		EnableTLSAuth: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	return &MilvusStore{
		milvusClient:     milvusClient,
		collectionPrefix: opts.CollectionPrefix,
		vectorSize:       opts.VectorSize,
	}, nil
}

func (s *MilvusStore) collectionName(cacheName string) string {
	// Milvus collection名只允许字母数字下划线
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, cacheName)
	return fmt.Sprintf("%s_%s", s.collectionPrefix, sanitized)
}

// Persist 覆盖写入：先删除同名collection再重建
func (s *MilvusStore) Persist(ctx context.Context, idx *VectorIndex, name string) error {
	if idx == nil || len(idx.Entries) == 0 {
		return fmt.Errorf("index is empty")
	}
	if name == "" {
		name = "default"
	}
	// 维度不一致的向量写入后会改变重载排序，直接拒绝
	for _, e := range idx.Entries {
		if len(e.Embedding) != s.vectorSize {
			return fmt.Errorf("向量维度不匹配: chunk %d has %d dimensions, collection expects %d",
				e.Ordinal, len(e.Embedding), s.vectorSize)
		}
	}
	collection := s.collectionName(name)

	hasCollection, err := s.milvusClient.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if hasCollection {
		if err := s.milvusClient.DropCollection(ctx, collection); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}

	schema := &entity.Schema{
		CollectionName: collection,
		Description:    fmt.Sprintf("Document index cache %s", name),
		Fields: []*entity.Field{
			{
				Name:       "ordinal",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     "content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.vectorSize),
				},
			},
		},
	}
	if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	ordinals := make([]int64, 0, len(idx.Entries))
	contents := make([]string, 0, len(idx.Entries))
	vectors := make([][]float32, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		ordinals = append(ordinals, int64(e.Ordinal))
		contents = append(contents, e.Text)
		vectors = append(vectors, e.Embedding)
	}

	_, err = s.milvusClient.Insert(ctx, collection, "",
		entity.NewColumnInt64("ordinal", ordinals),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnFloatVector("vector", s.vectorSize, vectors),
	)
	if err != nil {
		return fmt.Errorf("milvus insert failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, collection, false); err != nil {
		return fmt.Errorf("milvus flush failed: %w", err)
	}
	return nil
}

// Reload 从Milvus重载索引，collection不存在返回(nil, nil)
func (s *MilvusStore) Reload(ctx context.Context, name string) (*VectorIndex, error) {
	if name == "" {
		name = "default"
	}
	collection := s.collectionName(name)

	hasCollection, err := s.milvusClient.HasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection: %w", err)
	}
	if !hasCollection {
		return nil, nil
	}

	if err := s.milvusClient.LoadCollection(ctx, collection, false); err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}

	resultSet, err := s.milvusClient.Query(ctx, collection, nil, "ordinal >= 0",
		[]string{"ordinal", "content", "vector"})
	if err != nil {
		return nil, fmt.Errorf("milvus query failed: %w", err)
	}

	var (
		ordinals []int64
		contents []string
		vectors  [][]float32
	)
	for _, column := range resultSet {
		switch column.Name() {
		case "ordinal":
			if col, ok := column.(*entity.ColumnInt64); ok {
				ordinals = col.Data()
			}
		case "content":
			if col, ok := column.(*entity.ColumnVarChar); ok {
				contents = col.Data()
			}
		case "vector":
			if col, ok := column.(*entity.ColumnFloatVector); ok {
				vectors = col.Data()
			}
		}
	}

	if len(ordinals) == 0 {
		return nil, fmt.Errorf("索引文件损坏: collection %s has no entries", collection)
	}

	idx := &VectorIndex{
		Dimensions: s.vectorSize,
		Entries:    make([]Entry, 0, len(ordinals)),
	}
	for i, ordinal := range ordinals {
		entry := Entry{Ordinal: int(ordinal)}
		if i < len(contents) {
			entry.Text = contents[i]
		}
		if i < len(vectors) {
			entry.Embedding = vectors[i]
		}
		idx.Entries = append(idx.Entries, entry)
	}

	// Query不保证返回顺序，按序号恢复chunk顺序
	sort.Slice(idx.Entries, func(i, j int) bool {
		return idx.Entries[i].Ordinal < idx.Entries[j].Ordinal
	})
	return idx, nil
}

// List 列出所有缓存名对应的collection
func (s *MilvusStore) List(ctx context.Context) ([]string, error) {
	collections, err := s.milvusClient.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("milvus list collections failed: %w", err)
	}

	prefix := s.collectionPrefix + "_"
	var names []string
	for _, c := range collections {
		if strings.HasPrefix(c.Name, prefix) {
			names = append(names, strings.TrimPrefix(c.Name, prefix))
		}
	}
	return names, nil
}

// Close 关闭Milvus连接
func (s *MilvusStore) Close() error {
	if s.milvusClient == nil {
		return nil
	}
	return s.milvusClient.Close()
}

// Ready 检查Milvus连接是否可用
func (s *MilvusStore) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}
