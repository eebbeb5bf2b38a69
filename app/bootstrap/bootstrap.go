package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aihub/docchat-go/app/controllers"
	"github.com/aihub/docchat-go/internal/answer"
	"github.com/aihub/docchat-go/internal/chunker"
	"github.com/aihub/docchat-go/internal/config"
	"github.com/aihub/docchat-go/internal/extractor"
	"github.com/aihub/docchat-go/internal/index"
	"github.com/aihub/docchat-go/internal/logger"
	"github.com/aihub/docchat-go/internal/pipeline"
	"github.com/aihub/docchat-go/internal/remote"
	"github.com/aihub/docchat-go/internal/sanitizer"
	"github.com/aihub/docchat-go/internal/session"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks []func() error

	Pipeline *pipeline.Service
	Sessions *session.Manager
}

// Init bootstraps configuration, logger and the document QA pipeline
// required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	app := &App{}

	// 实体识别器：启动时做一次资源准备，失败不阻塞启动，
	// 脱敏阶段还会按需重试准备。
	recognizer := sanitizer.NewOpenAIRecognizer(cfg.AI.OpenAIAPIKey, cfg.Sanitizer.RecognizerModel)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := recognizer.EnsureReady(ctx); err != nil {
		logger.Warn("Entity recognizer not ready at startup", zap.Error(err))
	} else {
		logger.Info("Entity recognizer ready", zap.String("model", cfg.Sanitizer.RecognizerModel))
	}
	cancel()

	textChunker, err := chunker.New(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	embedder := index.NewOpenAIEmbedder(index.EmbedderOptions{
		APIKey:     cfg.AI.OpenAIAPIKey,
		Model:      cfg.AI.EmbeddingModel,
		Dimensions: cfg.AI.EmbeddingDimensions,
	})
	generator := answer.NewOpenAIGenerator(cfg.AI.OpenAIAPIKey, cfg.AI.ChatModel, cfg.AI.MaxTokens, cfg.AI.Temperature)
	if !embedder.Ready() || !generator.Ready() {
		logger.Warn("OpenAI API key not configured, embedding and generation unavailable")
	}

	// 索引存储：默认本地目录，配置Milvus时切换
	var store index.Store = index.NewLocalStore(cfg.Index.PersistDir)
	if cfg.Index.Provider == "milvus" {
		milvusStore, err := index.NewMilvusStore(index.MilvusOptions{
			Address:          cfg.Index.Milvus.Address,
			Username:         cfg.Index.Milvus.Username,
			Password:         cfg.Index.Milvus.Password,
			Database:         cfg.Index.Milvus.Database,
			CollectionPrefix: cfg.Index.Milvus.CollectionPrefix,
			VectorSize:       cfg.Index.Milvus.VectorSize,
			UseTLS:           cfg.Index.Milvus.TLS,
		})
		if err != nil {
			logger.Warn("Failed to connect Milvus, falling back to local index store", zap.Error(err))
		} else {
			logger.Info("Milvus index store initialized", zap.String("address", cfg.Index.Milvus.Address))
			store = milvusStore
			app.cleanupTasks = append(app.cleanupTasks, milvusStore.Close)
		}
	}

	// 远程文档存储（可选）。失败不阻塞启动。
	var documentSource remote.DocumentSource
	if cfg.Remote.Endpoint != "" {
		minioSource, err := remote.NewMinIOSource(remote.MinIOOptions{
			Endpoint:  cfg.Remote.Endpoint,
			AccessKey: cfg.Remote.AccessKey,
			SecretKey: cfg.Remote.SecretKey,
			Bucket:    cfg.Remote.Bucket,
			UseSSL:    cfg.Remote.UseSSL,
		})
		if err != nil {
			logger.Warn("Failed to initialize MinIO document source", zap.Error(err))
		} else {
			logger.Info("MinIO document source initialized", zap.String("endpoint", cfg.Remote.Endpoint))
			documentSource = minioSource
		}
	}

	engine := answer.NewEngine(generator, answer.Policy(cfg.Answer.Policy), cfg.Answer.TopK, cfg.Pipeline.PreviewLength)

	app.Pipeline = pipeline.New(pipeline.Options{
		Extractor:       extractor.New(cfg.Pipeline.MaxArchiveDepth),
		Sanitizer:       sanitizer.New(recognizer),
		Chunker:         textChunker,
		Embedder:        embedder,
		Store:           store,
		Engine:          engine,
		TextPreviewSize: cfg.Pipeline.TextPreviewSize,
	})
	app.Sessions = session.NewManager()

	controllers.Setup(app.Pipeline, app.Sessions, documentSource)

	return app, nil
}

// Shutdown flushes/logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}

	// Flush logger buffers.
	logger.Sync()
}
