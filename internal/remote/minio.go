package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Document 远程存储中的一份文档
type Document struct {
	Name string
	Data []byte
}

// DocumentSource 远程文档来源接口
type DocumentSource interface {
	Fetch(ctx context.Context, key string) (*Document, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Ready(ctx context.Context) bool
}

// MinIOSource 基于MinIO对象存储的文档来源
type MinIOSource struct {
	client *minio.Client
	bucket string
}

// MinIOOptions MinIO连接参数
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIOSource 创建MinIO文档来源
func NewMinIOSource(opts MinIOOptions) (*MinIOSource, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}
	if opts.Bucket == "" {
		opts.Bucket = "shared-documents"
	}

	// minio.New 不接受带协议的endpoint
	endpoint := strings.TrimPrefix(opts.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOSource{client: client, bucket: opts.Bucket}, nil
}

// EnsureBucket 确保bucket存在，不存在则创建
func (s *MinIOSource) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "BucketAlreadyExists") ||
			strings.Contains(errStr, "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Fetch 下载一份远程文档。文档名取对象key的最后一段，
// 供提取层按扩展名识别格式。
func (s *MinIOSource) Fetch(ctx context.Context, key string) (*Document, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("remote document %s not found", key)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return &Document{Name: path.Base(key), Data: data}, nil
}

// List 列出指定前缀下的对象key
func (s *MinIOSource) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, object.Err
		}
		keys = append(keys, object.Key)
	}
	return keys, nil
}

// Put 上传一份文档
func (s *MinIOSource) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Ready 检查远程存储是否可用
func (s *MinIOSource) Ready(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err == nil
}
