package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrismart-ci/ledger-chain/internal/handler"
	"github.com/agrismart-ci/ledger-chain/internal/metrics"
)

// SetupRouter 设置路由
func SetupRouter(r *gin.Engine, h *handler.LedgerHandler) {
	r.Use(metricsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/blockchain")
	{
		api.POST("/transactions", h.RecordTransaction)
		api.GET("/verify/:transaction_id", h.VerifyTransaction)
		api.GET("/trace/:transaction_id", h.TraceTransaction)
		api.GET("/stats", h.GetStats)
		api.POST("/mine-block", h.MineBlock)
	}
}

// metricsMiddleware 记录 HTTP 请求指标
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" || path == "/metrics" {
			return
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, statusLabel(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func statusLabel(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
