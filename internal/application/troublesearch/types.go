package troublesearch

import (
	"ops-portal-api/internal/domain/entity"
)

// SearchInput 事例検索の入力。
type SearchInput struct {
	Query string
	TopK  int

	// Alpha 0〜1。1 に近いほど TF-IDF の比重が高い。
	Alpha float64

	// フィルタ条件（ゼロ値は条件なし）
	Years       int
	SeverityMin *float64
	SeverityMax *float64
	Products    []string
	Tags        []string
}

// Result 検索結果 1 件。
type Result struct {
	Case         *entity.TroubleCase
	Score        float64
	VectorScore  float64
	LexicalScore float64
}

// SearchOutput 検索結果。
type SearchOutput struct {
	Count   int
	Results []Result
}
