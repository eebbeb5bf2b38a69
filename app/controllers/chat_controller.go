package controllers

import (
	"encoding/json"
	"net/http"
)

// ChatController 文档问答控制器
type ChatController struct {
	BaseController
}

// askRequest 问答请求
type askRequest struct {
	Question string `json:"question" validate:"required"`
}

// Ask 基于当前会话的文档索引回答问题
// POST /api/chat/ask
func (c *ChatController) Ask() {
	var req askRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "请求参数错误")
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, "question不能为空")
		return
	}

	sess := c.sessionFromRequest()
	record, err := pipelineService.Ask(c.Ctx.Request.Context(), sess, req.Question)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(record)
}

// History 返回当前会话的问答历史，从旧到新排列
// GET /api/chat/history
func (c *ChatController) History() {
	sess := c.sessionFromRequest()
	c.JSONSuccess(map[string]interface{}{
		"session_id": sess.ID,
		"history":    sess.History(),
	})
}
