// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"ops-portal-api/internal/domain/entity"
)

// SearchFeedbackRepository 検索フィードバック仓储接口
type SearchFeedbackRepository interface {
	// Create 创建フィードバック
	Create(ctx context.Context, fb *entity.SearchFeedback) error

	// Stats 集計（件数・有用率・平均解決時間・日次有用率）
	Stats(ctx context.Context) (*entity.FeedbackStats, error)
}
