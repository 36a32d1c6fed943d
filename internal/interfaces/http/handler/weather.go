// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/weather"
	"ops-portal-api/internal/interfaces/http/dto"
)

// WeatherHandler 出張先天気要約処理器
type WeatherHandler struct {
	svc *weather.Service
}

// NewWeatherHandler 创建天気処理器
func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{svc: svc}
}

// Summary 出張先の天気予報を取得して要約する
// @Summary 出張先天気要約
// @Tags Weather
// @Accept json
// @Produce json
// @Param body body dto.WeatherSummaryRequest true "出張先"
// @Success 200 {object} weather.SummaryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/weather/summary [post]
func (h *WeatherHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.WeatherSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Summarize(ctx, req.Destination)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
