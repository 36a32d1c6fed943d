// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/auth"
	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/pkg/logger"
)

// EmployeeKey 検証済み社員を gin.Context に格納するキー
const EmployeeKey = "current_employee"

// AuthConfig 認証ミドルウェア配置
type AuthConfig struct {
	// SkipPaths 認証を要求しないパス（前方一致）
	SkipPaths []string
	// Enabled 無効時は全経路を素通しする
	Enabled bool
}

// DefaultSkipPaths 認証なしで公開するパス
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/auth/login",
	"/api/hello",
	"/api/healthz",
	"/api/session",
	"/api/scenario",
	"/api/data/",
}

// Auth Bearer トークンを検証し、社員情報を注入する
func Auth(svc *auth.Service, cfg AuthConfig) gin.HandlerFunc {
	skipExact := make(map[string]bool)
	var skipPrefixes []string
	for _, path := range cfg.SkipPaths {
		if strings.HasSuffix(path, "/") {
			skipPrefixes = append(skipPrefixes, path)
			continue
		}
		skipExact[path] = true
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if skipExact[path] {
			c.Next()
			return
		}
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Missing bearer token")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		emp, err := svc.Verify(c.Request.Context(), parts[1])
		if err != nil {
			abortUnauthorized(c, "Could not validate credentials")
			return
		}

		c.Set(EmployeeKey, emp)

		ctx := logger.WithContext(c.Request.Context(), logger.EmployeeIDKey, emp.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentEmployee 検証済み社員を取り出す。未認証経路では nil。
func CurrentEmployee(c *gin.Context) *entity.Employee {
	v, ok := c.Get(EmployeeKey)
	if !ok {
		return nil
	}
	emp, _ := v.(*entity.Employee)
	return emp
}

// abortUnauthorized 401 で打ち切る。WWW-Authenticate も付ける。
func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
