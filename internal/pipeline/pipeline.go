package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aihub/docchat-go/internal/answer"
	"github.com/aihub/docchat-go/internal/chunker"
	apperrors "github.com/aihub/docchat-go/internal/errors"
	"github.com/aihub/docchat-go/internal/extractor"
	"github.com/aihub/docchat-go/internal/index"
	"github.com/aihub/docchat-go/internal/logger"
	"github.com/aihub/docchat-go/internal/metrics"
	"github.com/aihub/docchat-go/internal/sanitizer"
	"github.com/aihub/docchat-go/internal/session"
)

// DocumentExtractor 文本提取能力接口
type DocumentExtractor interface {
	ExtractDetailed(data []byte, filename string) (extractor.Result, error)
}

// Service 文档问答管道：提取 → 脱敏 → 分块 → 索引 → 问答。
// 脱敏永远发生在任何持久化或向量化之前。
type Service struct {
	extractor       DocumentExtractor
	sanitizer       *sanitizer.Sanitizer
	chunker         *chunker.Chunker
	embedder        index.Embedder
	store           index.Store
	engine          *answer.Engine
	logger          *zap.Logger
	textPreviewSize int

	mu     sync.Mutex
	loaded map[string]*index.VectorIndex
}

// Options 管道装配参数
type Options struct {
	Extractor       DocumentExtractor
	Sanitizer       *sanitizer.Sanitizer
	Chunker         *chunker.Chunker
	Embedder        index.Embedder
	Store           index.Store
	Engine          *answer.Engine
	TextPreviewSize int
}

// New 创建管道服务
func New(opts Options) *Service {
	previewSize := opts.TextPreviewSize
	if previewSize <= 0 {
		previewSize = 3000
	}
	return &Service{
		extractor:       opts.Extractor,
		sanitizer:       opts.Sanitizer,
		chunker:         opts.Chunker,
		embedder:        opts.Embedder,
		store:           opts.Store,
		engine:          opts.Engine,
		logger:          logger.GetLogger(),
		textPreviewSize: previewSize,
		loaded:          make(map[string]*index.VectorIndex),
	}
}

// IngestResult 摄取结果
type IngestResult struct {
	CacheName     string                   `json:"cache_name"`
	ChunkCount    int                      `json:"chunk_count"`
	TextPreview   string                   `json:"text_preview"`
	FailedEntries []extractor.EntryFailure `json:"failed_entries,omitempty"`
}

// Ingest 摄取一份文档：提取文本、脱敏、分块、构建并持久化索引。
// 任何一步失败都不会留下部分索引。
func (s *Service) Ingest(ctx context.Context, data []byte, filename, cacheName string) (*IngestResult, error) {
	start := time.Now()
	result, err := s.ingest(ctx, data, filename, cacheName)
	if err != nil {
		metrics.ObserveIngest("error", time.Since(start))
		return nil, err
	}
	metrics.ObserveIngest("success", time.Since(start))
	return result, nil
}

func (s *Service) ingest(ctx context.Context, data []byte, filename, cacheName string) (*IngestResult, error) {
	if cacheName == "" {
		cacheName = "default"
	}

	extracted, err := s.extractor.ExtractDetailed(data, filename)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeExtractionFailed,
			"failed to extract text from "+filename).WithCause(err)
	}
	for _, failure := range extracted.FailedEntries {
		s.logger.Warn("Archive entry skipped",
			zap.String("entry", failure.Name),
			zap.String("reason", failure.Err))
	}

	rawText := extracted.Text
	if strings.TrimSpace(rawText) == "" {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeEmptyContent,
			"document produced no extractable text")
	}

	sanitized, err := s.sanitizer.Sanitize(ctx, rawText)
	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.ErrCodeSanitizeResource,
			"sanitization failed").WithCause(err)
	}
	if strings.TrimSpace(sanitized) == "" {
		// 原文非空但脱敏后为空是数据丢失信号，不能继续建索引
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeSanitizeCollapse,
			"sanitized text is empty while source text was not")
	}

	chunks := s.chunker.Split(sanitized)
	if len(chunks) == 0 {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeEmptyContent,
			"no chunks produced from sanitized text")
	}

	idx, err := index.Build(ctx, s.embedder, chunks)
	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.ErrCodeEmbeddingProvider,
			"failed to build vector index").WithCause(err)
	}

	if err := s.store.Persist(ctx, idx, cacheName); err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeIndexPersist,
			"failed to persist index "+cacheName).WithCause(err)
	}

	s.mu.Lock()
	s.loaded[cacheName] = idx
	s.mu.Unlock()

	s.logger.Info("Document ingested",
		zap.String("filename", filename),
		zap.String("cache", cacheName),
		zap.Int("chunks", len(chunks)),
		zap.Int("skipped_entries", len(extracted.FailedEntries)))

	return &IngestResult{
		CacheName:     cacheName,
		ChunkCount:    len(chunks),
		TextPreview:   truncateRunes(sanitized, s.textPreviewSize),
		FailedEntries: extracted.FailedEntries,
	}, nil
}

// IngestForSession 摄取文档并更新会话状态
func (s *Service) IngestForSession(ctx context.Context, sess *session.Session, data []byte, filename, cacheName string) (*IngestResult, error) {
	result, err := s.Ingest(ctx, data, filename, cacheName)
	if err != nil {
		return nil, err
	}
	sess.TrackIngest(data, result.CacheName, result.TextPreview)
	return result, nil
}

// Ask 回答问题并在成功时把记录追加到会话历史。
// 失败不追加历史，也不会改动索引。
func (s *Service) Ask(ctx context.Context, sess *session.Session, question string) (*answer.AnswerRecord, error) {
	start := time.Now()
	record, err := s.ask(ctx, sess, question)
	if err != nil {
		metrics.ObserveQuestion("error", time.Since(start))
		return nil, err
	}
	metrics.ObserveQuestion("success", time.Since(start))
	return record, nil
}

func (s *Service) ask(ctx context.Context, sess *session.Session, question string) (*answer.AnswerRecord, error) {
	cacheName := sess.CacheName()
	if cacheName == "" {
		return nil, apperrors.NewValidationError("no document ingested for this session")
	}

	idx, err := s.loadIndex(ctx, cacheName)
	if err != nil {
		return nil, err
	}

	record, err := s.engine.Answer(ctx, &indexRetriever{idx: idx, embedder: s.embedder}, question)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewExternalError(apperrors.ErrCodeGenerationProvider,
			"query failed").WithCause(err)
	}

	sess.AppendRecord(record)
	return record, nil
}

// UseCache 将会话切换到一个已持久化的缓存名
func (s *Service) UseCache(ctx context.Context, sess *session.Session, cacheName string) error {
	if _, err := s.loadIndex(ctx, cacheName); err != nil {
		return err
	}
	sess.UseCache(cacheName)
	return nil
}

// Caches 列出所有持久化的缓存名
func (s *Service) Caches(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// loadIndex 获取缓存名对应的索引，优先使用已加载的内存副本。
// 缓存不存在返回NotFound错误，缓存损坏返回IndexCorrupt错误。
func (s *Service) loadIndex(ctx context.Context, cacheName string) (*index.VectorIndex, error) {
	s.mu.Lock()
	if idx, ok := s.loaded[cacheName]; ok {
		s.mu.Unlock()
		return idx, nil
	}
	s.mu.Unlock()

	idx, err := s.store.Reload(ctx, cacheName)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeIndexCorrupt,
			"failed to reload index "+cacheName).WithCause(err)
	}
	if idx == nil {
		return nil, apperrors.NewNotFoundError("index cache " + cacheName)
	}

	s.mu.Lock()
	s.loaded[cacheName] = idx
	s.mu.Unlock()
	return idx, nil
}

// indexRetriever 把向量索引和embedder组合成检索能力
type indexRetriever struct {
	idx      *index.VectorIndex
	embedder index.Embedder
}

func (r *indexRetriever) Retrieve(ctx context.Context, question string, k int) ([]index.Match, error) {
	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.ErrCodeEmbeddingProvider,
			"failed to embed question").WithCause(err)
	}
	return r.idx.Search(embedding, k), nil
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
