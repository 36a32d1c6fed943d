// Package dto 提供 HTTP 层数据传输对象
package dto

// ParseResponse テキスト抽出応答
type ParseResponse struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}
