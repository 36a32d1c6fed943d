package handler

import (
	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/interfaces/http/middleware"
)

// CurrentEmployee 認証ミドルウェアが注入した社員を取り出す。
// 公開経路では nil。
func CurrentEmployee(c *gin.Context) *entity.Employee {
	return middleware.CurrentEmployee(c)
}
