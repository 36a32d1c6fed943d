// Package entity 定义领域实体
package entity

import "time"

// SearchFeedback 検索結果に対する有用性フィードバック
type SearchFeedback struct {
	ID         int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Query      string         `json:"query" gorm:"type:text;not null"`
	CaseID     string         `json:"case_id" gorm:"type:varchar(64);index"`
	Helpful    bool           `json:"helpful" gorm:"not null"`
	SolveHours *float64       `json:"solve_hours,omitempty"`
	Extra      map[string]any `json:"extra,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time      `json:"timestamp" gorm:"column:created_at;autoCreateTime;index"`
}

// TableName 指定表名
func (SearchFeedback) TableName() string {
	return "search_feedback"
}

// NewSearchFeedback 创建フィードバック記録
func NewSearchFeedback(query, caseID string, helpful bool) *SearchFeedback {
	return &SearchFeedback{
		Query:     query,
		CaseID:    caseID,
		Helpful:   helpful,
		CreatedAt: time.Now(),
	}
}

// FeedbackStats フィードバック集計結果
type FeedbackStats struct {
	Count            int              `json:"count"`
	HelpfulRate      *float64         `json:"helpful_rate"`
	AvgSolveHours    *float64         `json:"avg_solve_hours"`
	DailyHelpfulRate []DailyRatePoint `json:"daily_helpful_rate"`
}

// DailyRatePoint 日次の有用率
type DailyRatePoint struct {
	Date        string  `json:"date"`
	HelpfulRate float64 `json:"helpful_rate"`
}
