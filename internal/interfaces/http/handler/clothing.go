// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/clothing"
	"ops-portal-api/internal/interfaces/http/dto"
)

// ClothingHandler 服装アドバイス処理器
type ClothingHandler struct {
	svc *clothing.Service
}

// NewClothingHandler 创建服装アドバイス処理器
func NewClothingHandler(svc *clothing.Service) *ClothingHandler {
	return &ClothingHandler{svc: svc}
}

// Advice 天気予報データから服装アドバイスの Markdown を生成する
// @Summary 服装アドバイス生成
// @Tags Clothing
// @Accept json
// @Produce json
// @Param body body dto.ClothingAdviceRequest true "予報データ"
// @Success 200 {object} dto.ClothingAdviceResponse
// @Router /api/clothing/advice [post]
func (h *ClothingHandler) Advice(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ClothingAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	useAzure := req.UseAzure == nil || *req.UseAzure
	markdown := h.svc.Advise(ctx, clothing.AdviceInput{
		PrefName: req.PrefName,
		Data:     req.Data,
		UseAzure: useAzure,
	})
	c.JSON(http.StatusOK, dto.ClothingAdviceResponse{Markdown: markdown})
}
