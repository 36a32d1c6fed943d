// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"ops-portal-api/internal/application/clothing"
)

// MessageResponse 挨拶など単文の応答
type MessageResponse struct {
	Message string `json:"message"`
}

// WeatherSummaryRequest 天気要約要求
type WeatherSummaryRequest struct {
	Destination string `json:"destination" binding:"required"`
}

// ClothingAdviceRequest 服装アドバイス要求。
// use_azure 省略時は LLM による文面調整を有効にする。
type ClothingAdviceRequest struct {
	PrefName string            `json:"pref_name"`
	Data     clothing.Forecast `json:"data"`
	UseAzure *bool             `json:"use_azure"`
}

// ClothingAdviceResponse 服装アドバイス応答
type ClothingAdviceResponse struct {
	Markdown string `json:"markdown"`
}

// NLQQueryRequest 自然言語 SQL 照会要求
type NLQQueryRequest struct {
	Question string `json:"question" binding:"required"`
	Limit    int    `json:"limit"`
}

// ScenarioItem デモシナリオの 1 ステップ
type ScenarioItem struct {
	Role     string `json:"role"`
	Text     string `json:"text"`
	FileName string `json:"file_name,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
}

// ScenarioResponse デモシナリオ応答
type ScenarioResponse struct {
	Scenario []ScenarioItem `json:"scenario"`
}
