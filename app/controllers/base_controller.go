package controllers

import (
	"net/http"

	"github.com/beego/beego/v2/server/web"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/aihub/docchat-go/internal/errors"
	"github.com/aihub/docchat-go/internal/pipeline"
	"github.com/aihub/docchat-go/internal/remote"
	"github.com/aihub/docchat-go/internal/session"
)

// 控制器依赖在bootstrap完成后注入。beego按请求反射创建控制器实例，
// 注册时设置的字段不会保留，因此依赖放在包级变量。
var (
	pipelineService *pipeline.Service
	sessionManager  *session.Manager
	documentSource  remote.DocumentSource
	validate        = validator.New()
)

// Setup 注入控制器依赖
func Setup(svc *pipeline.Service, sessions *session.Manager, source remote.DocumentSource) {
	pipelineService = svc
	sessionManager = sessions
	documentSource = source
}

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	c.ServeJSON()
}

// JSONSuccess writes a standard success envelope.
func (c *BaseController) JSONSuccess(data interface{}) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// JSONAppError 按错误码映射HTTP状态写出错误响应
func (c *BaseController) JSONAppError(err error) {
	appErr := apperrors.GetAppError(err)
	c.JSON(appErr.HTTPCode, map[string]interface{}{
		"success": false,
		"code":    appErr.Code,
		"error":   appErr.Message,
	})
}

// sessionFromRequest 解析会话，优先取header，其次查询参数
func (c *BaseController) sessionFromRequest() *session.Session {
	sessionID := c.Ctx.Input.Header("X-Session-Id")
	if sessionID == "" {
		sessionID = c.GetString("session_id")
	}
	return sessionManager.GetOrCreate(sessionID)
}
