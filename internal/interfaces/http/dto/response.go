// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/pkg/errors"
)

// ErrorResponse エラー応答。detail のみを返す。
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Fail AppError を HTTP ステータスへ変換して応答する。
// 既知のエラーコード以外は 500 にまとめる。
func Fail(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	c.JSON(appErr.HTTPStatus, ErrorResponse{Detail: appErr.Message})
}

// FailWith 指定ステータスでエラー応答を返す
func FailWith(c *gin.Context, status int, detail string) {
	c.JSON(status, ErrorResponse{Detail: detail})
}

// BadRequest 400 応答
func BadRequest(c *gin.Context, detail string) {
	FailWith(c, http.StatusBadRequest, detail)
}

// Unauthorized 401 応答
func Unauthorized(c *gin.Context, detail string) {
	FailWith(c, http.StatusUnauthorized, detail)
}
