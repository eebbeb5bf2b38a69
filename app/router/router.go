package router

import (
	"github.com/beego/beego/v2/server/web"

	"github.com/aihub/docchat-go/app/controllers"
)

// Init registers all routes. Must be called after config is loaded.
func Init() {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Router("/metrics", &controllers.MetricsController{}, "get:Metrics")

	// 文档摄取路由
	documentController := &controllers.DocumentController{}
	web.Router("/api/documents/upload", documentController, "post:Upload")
	web.Router("/api/documents/remote", documentController, "post:IngestRemote")
	web.Router("/api/documents/caches", documentController, "get:ListCaches")
	web.Router("/api/documents/caches/use", documentController, "post:UseCache")
	web.Router("/api/documents/preview", documentController, "get:Preview")

	// 问答路由
	chatController := &controllers.ChatController{}
	web.Router("/api/chat/ask", chatController, "post:Ask")
	web.Router("/api/chat/history", chatController, "get:History")
}
