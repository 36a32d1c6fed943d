// Package dto 提供 HTTP 层数据传输对象
package dto

// TreeResponse データディレクトリ構成の応答
type TreeResponse struct {
	Text string `json:"text"`
}

// DedupeResponse 該非判定書の重複排除保存の応答
type DedupeResponse struct {
	OK      bool   `json:"ok"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// QuotationGenerateRequest 見積 JSON 生成要求
type QuotationGenerateRequest struct {
	POText      string `json:"po_text" binding:"required"`
	HiteiText   string `json:"hitei_text"`
	Instruction string `json:"instruction"`
}

// QuotationGenerateResponse 見積 JSON 生成応答
type QuotationGenerateResponse struct {
	OK   bool           `json:"ok"`
	Data map[string]any `json:"data"`
}

// DiffRequest 現行 JSON とプレビュー JSON の差分要求
type DiffRequest struct {
	CurrentJSON map[string]any `json:"current_json"`
	PreviewJSON map[string]any `json:"preview_json"`
}

// DiffResponse unified diff 応答
type DiffResponse struct {
	OK   bool   `json:"ok"`
	Diff string `json:"diff"`
}
