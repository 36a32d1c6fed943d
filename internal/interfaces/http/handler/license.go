// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/license"
	"ops-portal-api/internal/interfaces/http/dto"
)

// LicenseHandler OSS ライセンス審査処理器
type LicenseHandler struct {
	svc *license.Service
}

// NewLicenseHandler 创建ライセンス処理器
func NewLicenseHandler(svc *license.Service) *LicenseHandler {
	return &LicenseHandler{svc: svc}
}

// Summary ライセンス本文から商用利用に関係する要点を構造化する
// @Summary ライセンス要約
// @Tags License
// @Accept json
// @Produce json
// @Param body body dto.LicenseSummaryRequest true "要約要求"
// @Success 200 {object} license.SummaryResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/license/summary [post]
func (h *LicenseHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LicenseSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Summarize(ctx, license.SummarizeInput{
		SoftwareName: req.SoftwareName,
		LicenseText:  req.LicenseText,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Judge 要約と利用形態から商用利用可否を判定する
// @Summary ライセンス判定
// @Tags License
// @Accept json
// @Produce json
// @Param body body dto.LicenseJudgeRequest true "判定要求"
// @Success 200 {object} license.JudgeResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/license/judge [post]
func (h *LicenseHandler) Judge(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LicenseJudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Judge(ctx, license.JudgeInput{
		SoftwareName: req.SoftwareName,
		UsageType:    req.UsageType,
		Summary:      req.Summary,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
