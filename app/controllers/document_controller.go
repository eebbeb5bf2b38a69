package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/aihub/docchat-go/internal/extractor"
)

// DocumentController 文档摄取控制器
type DocumentController struct {
	BaseController
}

// Upload 上传文档并构建索引
// POST /api/documents/upload (multipart: file; 可选: cache_name)
func (c *DocumentController) Upload() {
	file, header, err := c.GetFile("file")
	if err != nil {
		c.JSONError(http.StatusBadRequest, "缺少上传文件")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "读取上传文件失败")
		return
	}
	if len(data) == 0 {
		c.JSONError(http.StatusBadRequest, "上传文件为空")
		return
	}
	if extractor.DetectKind(header.Filename) == extractor.KindUnknown {
		c.JSONError(http.StatusBadRequest, "不支持的文件格式")
		return
	}

	sess := c.sessionFromRequest()
	cacheName := c.GetString("cache_name")

	result, err := pipelineService.IngestForSession(c.Ctx.Request.Context(), sess, data, header.Filename, cacheName)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(result)
}

// ingestRemoteRequest 远程文档摄取请求
type ingestRemoteRequest struct {
	Key       string `json:"key" validate:"required"`
	CacheName string `json:"cache_name"`
}

// IngestRemote 从远程对象存储拉取文档并构建索引
// POST /api/documents/remote
func (c *DocumentController) IngestRemote() {
	if documentSource == nil {
		c.JSONError(http.StatusServiceUnavailable, "远程文档存储未配置")
		return
	}

	var req ingestRemoteRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "请求参数错误")
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, "key不能为空")
		return
	}

	doc, err := documentSource.Fetch(c.Ctx.Request.Context(), req.Key)
	if err != nil {
		c.JSONError(http.StatusBadGateway, "拉取远程文档失败")
		return
	}

	sess := c.sessionFromRequest()
	result, err := pipelineService.IngestForSession(c.Ctx.Request.Context(), sess, doc.Data, doc.Name, req.CacheName)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(result)
}

// ListCaches 列出已持久化的索引缓存
// GET /api/documents/caches
func (c *DocumentController) ListCaches() {
	caches, err := pipelineService.Caches(c.Ctx.Request.Context())
	if err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"caches": caches,
	})
}

// useCacheRequest 切换缓存请求
type useCacheRequest struct {
	CacheName string `json:"cache_name" validate:"required"`
}

// UseCache 将会话切换到已持久化的索引缓存
// POST /api/documents/caches/use
func (c *DocumentController) UseCache() {
	var req useCacheRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "请求参数错误")
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, "cache_name不能为空")
		return
	}

	sess := c.sessionFromRequest()
	if err := pipelineService.UseCache(c.Ctx.Request.Context(), sess, req.CacheName); err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"cache_name": req.CacheName,
	})
}

// Preview 返回当前会话的脱敏文本预览
// GET /api/documents/preview
func (c *DocumentController) Preview() {
	sess := c.sessionFromRequest()
	preview := sess.TextPreview()
	if preview == "" {
		c.JSONError(http.StatusNotFound, "当前会话没有已摄取的文档")
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"text_preview": preview,
	})
}
