// Package middleware 提供 HTTP 中间件
package middleware

import (
	"time"

	"ops-portal-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Audit アクセスログ中間件。
// 社員 ID を含む要求の概要を記録する。
func Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		employeeID := ""
		if emp := CurrentEmployee(c); emp != nil {
			employeeID = emp.ID
		}

		logger.Info(c.Request.Context(), "api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
			"ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"employee_id", employeeID,
			"request_id", c.GetString("request_id"),
			"trace_id", c.GetString("trace_id"),
			"body_size", c.Writer.Size(),
		)
	}
}

// AuditConfig アクセスログ配置
type AuditConfig struct {
	// Enabled 無効時は何も記録しない
	Enabled bool
	// SkipPaths 記録しないパス
	SkipPaths []string
}

// AuditWithConfig 配置付きアクセスログ中間件
func AuditWithConfig(cfg AuditConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	skipMap := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipMap[path] = true
	}

	audit := Audit()
	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}
		audit(c)
	}
}

// DefaultAuditSkipPaths 既定で記録しないパス
var DefaultAuditSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/api/healthz",
}
