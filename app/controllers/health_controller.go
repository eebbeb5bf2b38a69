package controllers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

// RootController 服务根路径
type RootController struct {
	BaseController
}

// Index 服务信息
func (c *RootController) Index() {
	c.JSONSuccess(map[string]interface{}{
		"service": "docchat",
		"status":  "running",
	})
}

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

// Health 健康检查
func (c *HealthController) Health() {
	c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(startTime).Seconds()),
	})
}

// MetricsController Prometheus指标控制器
type MetricsController struct {
	BaseController
}

// Metrics 返回Prometheus格式的指标
func (c *MetricsController) Metrics() {
	promhttp.Handler().ServeHTTP(c.Ctx.ResponseWriter, c.Ctx.Request)
}
