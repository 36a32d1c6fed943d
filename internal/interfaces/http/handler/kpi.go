// Package handler 提供 HTTP 请求处理器
package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/kpi"
	"ops-portal-api/internal/interfaces/http/dto"
)

// KPIHandler 生産 KPI 分析処理器
type KPIHandler struct {
	svc *kpi.Service
}

// NewKPIHandler 创建 KPI 処理器
func NewKPIHandler(svc *kpi.Service) *KPIHandler {
	return &KPIHandler{svc: svc}
}

// Analyze 生産実績 CSV を解析し KPI とグラフ用データを返す
// @Summary 生産 KPI 分析
// @Tags KPI
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "生産実績 CSV"
// @Success 200 {object} kpi.Analysis
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/kpi/analyze [post]
func (h *KPIHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		dto.BadRequest(c, "failed to read upload: "+err.Error())
		return
	}

	analysis, err := h.svc.Analyze(ctx, raw)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
