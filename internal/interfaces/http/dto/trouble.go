// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"ops-portal-api/internal/application/troublesearch"
	"ops-portal-api/internal/domain/entity"
)

// TroubleSearchResult 検索結果 1 件。事例フィールドにスコアを重ねる。
type TroubleSearchResult struct {
	*entity.TroubleCase
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score"`
	LexicalScore float64 `json:"lexical_score"`
}

// TroubleSearchResponse 事例検索応答
type TroubleSearchResponse struct {
	Count   int                   `json:"count"`
	Results []TroubleSearchResult `json:"results"`
}

// ToTroubleSearchResponse 検索結果を応答用に変換する
func ToTroubleSearchResponse(out *troublesearch.SearchOutput) *TroubleSearchResponse {
	resp := &TroubleSearchResponse{Results: []TroubleSearchResult{}}
	if out == nil {
		return resp
	}
	resp.Count = out.Count
	for _, r := range out.Results {
		resp.Results = append(resp.Results, TroubleSearchResult{
			TroubleCase:  r.Case,
			Score:        r.Score,
			VectorScore:  r.VectorScore,
			LexicalScore: r.LexicalScore,
		})
	}
	return resp
}

// FeedbackRequest 検索フィードバック要求
type FeedbackRequest struct {
	Query      string         `json:"query" binding:"required"`
	CaseID     string         `json:"case_id" binding:"required"`
	Helpful    *bool          `json:"helpful" binding:"required"`
	SolveHours *float64       `json:"solve_hours"`
	Extra      map[string]any `json:"extra"`
}

// TacitSubmitRequest 暗黙知メモ投稿要求
type TacitSubmitRequest struct {
	CaseID   string         `json:"case_id" binding:"required"`
	Note     string         `json:"note" binding:"required"`
	Category string         `json:"category"`
	Author   string         `json:"author"`
	Approver string         `json:"approver"`
	Status   string         `json:"status"`
	Extra    map[string]any `json:"extra"`
}

// TacitListResponse 暗黙知メモ一覧応答
type TacitListResponse struct {
	Count   int                 `json:"count"`
	Results []*entity.TacitNote `json:"results"`
}

// TacitApproveRequest 暗黙知メモ承認要求
type TacitApproveRequest struct {
	RowID    int64  `json:"row_id" binding:"required"`
	Approver string `json:"approver"`
}

// StatusResponse 処理結果のみの応答
type StatusResponse struct {
	Status string `json:"status"`
}
