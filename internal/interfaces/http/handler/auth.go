// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/auth"
	"ops-portal-api/internal/interfaces/http/dto"
)

// AuthHandler 認証処理器
type AuthHandler struct {
	svc *auth.Service
}

// NewAuthHandler 创建認証処理器
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login ログイン
// @Summary 社員ログイン
// @Description 社員IDとパスワードを検証し JWT を発行する
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "ログイン情報"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Login(ctx, req.EmployeeID, req.Password)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token: result.Token,
		User:  dto.ToUserDTO(result.Employee),
	})
}

// Me 認証済み社員情報
// @Summary ログイン中の社員情報
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.UserDTO
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	emp := CurrentEmployee(c)
	if emp == nil {
		dto.Unauthorized(c, "Could not validate credentials")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(emp))
}
