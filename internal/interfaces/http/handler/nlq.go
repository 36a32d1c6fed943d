// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/nlq"
	"ops-portal-api/internal/interfaces/http/dto"
)

// NLQHandler 自然言語 SQL 照会処理器
type NLQHandler struct {
	svc *nlq.Service
}

// NewNLQHandler 创建 NLQ 処理器
func NewNLQHandler(svc *nlq.Service) *NLQHandler {
	return &NLQHandler{svc: svc}
}

// Query 日本語の質問を SELECT 文へ変換して実行する
// @Summary 自然言語 SQL 照会
// @Tags OracleNLQ
// @Accept json
// @Produce json
// @Param body body dto.NLQQueryRequest true "質問"
// @Success 200 {object} nlq.QueryResult
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/oracle-nlq/query [post]
func (h *NLQHandler) Query(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.NLQQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Query(ctx, nlq.QueryInput{
		Question: req.Question,
		Limit:    req.Limit,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Whoami 接続ユーザーと接続先の確認
// @Summary Oracle 接続診断
// @Tags OracleDiag
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/oracle-diag/whoami [get]
func (h *NLQHandler) Whoami(c *gin.Context) {
	ctx := c.Request.Context()

	row, err := h.svc.Whoami(ctx)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Tables 接続ユーザーから見えるテーブル一覧
// @Summary Oracle テーブル一覧
// @Tags OracleDiag
// @Produce json
// @Success 200 {object} oracle.QueryResult
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/oracle-diag/tables [get]
func (h *NLQHandler) Tables(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.svc.Tables(ctx)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
