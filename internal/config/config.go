package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Pipeline  PipelineConfig
	Answer    AnswerConfig
	Index     IndexConfig
	Remote    RemoteConfig
	Sanitizer SanitizerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type AIConfig struct {
	OpenAIAPIKey        string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int // 0表示使用模型默认维度
	MaxTokens           int
	Temperature         float64
}

type PipelineConfig struct {
	ChunkSize       int
	ChunkOverlap    int
	MaxArchiveDepth int
	PreviewLength   int
	TextPreviewSize int
}

type AnswerConfig struct {
	TopK   int
	Policy string // strict | permissive
}

type IndexConfig struct {
	Provider   string // local | milvus
	PersistDir string
	Milvus     MilvusConfig
}

type MilvusConfig struct {
	Address          string
	Username         string
	Password         string
	Database         string
	CollectionPrefix string
	TLS              bool
	VectorSize       int
}

type RemoteConfig struct {
	Provider  string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type SanitizerConfig struct {
	RecognizerModel string
}

var AppConfig *Config

func LoadConfig() error {
	// 设置默认值
	viper.SetDefault("server.port", "8002")
	viper.SetDefault("server.env", "development")

	// AI配置默认值
	viper.SetDefault("ai.chat_model", "gpt-4o")
	viper.SetDefault("ai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("ai.embedding_dimensions", 0)
	viper.SetDefault("ai.max_tokens", 2000)
	viper.SetDefault("ai.temperature", 0.1)

	// 管道配置默认值
	viper.SetDefault("pipeline.chunk_size", 1000)
	viper.SetDefault("pipeline.chunk_overlap", 100)
	viper.SetDefault("pipeline.max_archive_depth", 10)
	viper.SetDefault("pipeline.preview_length", 300)
	viper.SetDefault("pipeline.text_preview_size", 3000)

	// 问答配置默认值
	viper.SetDefault("answer.top_k", 6)
	viper.SetDefault("answer.policy", "permissive")

	// 索引存储配置默认值
	viper.SetDefault("index.provider", "local")
	viper.SetDefault("index.persist_dir", "./data/indexes")
	viper.SetDefault("index.milvus.address", "localhost:19530")
	viper.SetDefault("index.milvus.database", "default")
	viper.SetDefault("index.milvus.collection_prefix", "docchat")
	viper.SetDefault("index.milvus.tls", false)
	viper.SetDefault("index.milvus.vector_size", 1536)

	// 远程文档存储配置默认值
	viper.SetDefault("remote.provider", "minio")
	viper.SetDefault("remote.endpoint", "")
	viper.SetDefault("remote.bucket", "shared-documents")
	viper.SetDefault("remote.use_ssl", false)

	// 脱敏配置默认值
	viper.SetDefault("sanitizer.recognizer_model", "gpt-4o-mini")

	// 读取环境变量
	viper.SetEnvPrefix("DOCCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 兼容常用环境变量名
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		viper.Set("ai.openai_api_key", apiKey)
	}
	if minioEndpoint := os.Getenv("MINIO_ENDPOINT"); minioEndpoint != "" {
		viper.Set("remote.endpoint", minioEndpoint)
	} else if minioHost := os.Getenv("MINIO_HOST"); minioHost != "" {
		minioPort := os.Getenv("MINIO_PORT")
		if minioPort == "" {
			minioPort = "9000"
		}
		viper.Set("remote.endpoint", fmt.Sprintf("%s:%s", minioHost, minioPort))
	}
	if accessKey := os.Getenv("MINIO_ACCESS_KEY"); accessKey != "" {
		viper.Set("remote.access_key", accessKey)
	}
	if secretKey := os.Getenv("MINIO_SECRET_KEY"); secretKey != "" {
		viper.Set("remote.secret_key", secretKey)
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		viper.Set("remote.bucket", bucket)
	}
	if milvusAddr := os.Getenv("MILVUS_ADDRESS"); milvusAddr != "" {
		viper.Set("index.milvus.address", milvusAddr)
		viper.Set("index.provider", "milvus")
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		AI: AIConfig{
			OpenAIAPIKey:        viper.GetString("ai.openai_api_key"),
			ChatModel:           viper.GetString("ai.chat_model"),
			EmbeddingModel:      viper.GetString("ai.embedding_model"),
			EmbeddingDimensions: viper.GetInt("ai.embedding_dimensions"),
			MaxTokens:           viper.GetInt("ai.max_tokens"),
			Temperature:         viper.GetFloat64("ai.temperature"),
		},
		Pipeline: PipelineConfig{
			ChunkSize:       viper.GetInt("pipeline.chunk_size"),
			ChunkOverlap:    viper.GetInt("pipeline.chunk_overlap"),
			MaxArchiveDepth: viper.GetInt("pipeline.max_archive_depth"),
			PreviewLength:   viper.GetInt("pipeline.preview_length"),
			TextPreviewSize: viper.GetInt("pipeline.text_preview_size"),
		},
		Answer: AnswerConfig{
			TopK:   viper.GetInt("answer.top_k"),
			Policy: viper.GetString("answer.policy"),
		},
		Index: IndexConfig{
			Provider:   viper.GetString("index.provider"),
			PersistDir: viper.GetString("index.persist_dir"),
			Milvus: MilvusConfig{
				Address:          viper.GetString("index.milvus.address"),
				Username:         viper.GetString("index.milvus.username"),
				Password:         viper.GetString("index.milvus.password"),
				Database:         viper.GetString("index.milvus.database"),
				CollectionPrefix: viper.GetString("index.milvus.collection_prefix"),
				TLS:              viper.GetBool("index.milvus.tls"),
				VectorSize:       viper.GetInt("index.milvus.vector_size"),
			},
		},
		Remote: RemoteConfig{
			Provider:  viper.GetString("remote.provider"),
			Endpoint:  viper.GetString("remote.endpoint"),
			AccessKey: viper.GetString("remote.access_key"),
			SecretKey: viper.GetString("remote.secret_key"),
			Bucket:    viper.GetString("remote.bucket"),
			UseSSL:    viper.GetBool("remote.use_ssl"),
		},
		Sanitizer: SanitizerConfig{
			RecognizerModel: viper.GetString("sanitizer.recognizer_model"),
		},
	}

	return nil
}

// GetAppConfig 获取全局配置
func GetAppConfig() *Config {
	if AppConfig == nil {
		_ = LoadConfig()
	}
	return AppConfig
}
