// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"ops-portal-api/internal/domain/entity"
)

// SearchFeedbackRepository 検索フィードバック仓储实现
type SearchFeedbackRepository struct {
	client *Client
}

// NewSearchFeedbackRepository 创建フィードバック仓储
func NewSearchFeedbackRepository(client *Client) *SearchFeedbackRepository {
	return &SearchFeedbackRepository{client: client}
}

// Create 创建フィードバック
func (r *SearchFeedbackRepository) Create(ctx context.Context, fb *entity.SearchFeedback) error {
	ctx, span := tracer.Start(ctx, "postgres.SearchFeedbackRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(fb).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// Stats 集計フィードバック
func (r *SearchFeedbackRepository) Stats(ctx context.Context) (*entity.FeedbackStats, error) {
	ctx, span := tracer.Start(ctx, "postgres.SearchFeedbackRepository.Stats")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var total struct {
		Count         int
		HelpfulRate   *float64
		AvgSolveHours *float64
	}
	err := db.Model(&entity.SearchFeedback{}).
		Select("COUNT(*) AS count",
			"AVG(CASE WHEN helpful THEN 1.0 ELSE 0.0 END) AS helpful_rate",
			"AVG(solve_hours) AS avg_solve_hours").
		Scan(&total).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to aggregate feedback: %w", err)
	}

	var daily []struct {
		Day         time.Time
		HelpfulRate float64
	}
	err = db.Model(&entity.SearchFeedback{}).
		Select("created_at::date AS day",
			"AVG(CASE WHEN helpful THEN 1.0 ELSE 0.0 END) AS helpful_rate").
		Group("created_at::date").
		Order("day").
		Scan(&daily).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to aggregate daily feedback: %w", err)
	}

	stats := &entity.FeedbackStats{
		Count:            total.Count,
		HelpfulRate:      total.HelpfulRate,
		AvgSolveHours:    total.AvgSolveHours,
		DailyHelpfulRate: make([]entity.DailyRatePoint, 0, len(daily)),
	}
	for _, d := range daily {
		stats.DailyHelpfulRate = append(stats.DailyHelpfulRate, entity.DailyRatePoint{
			Date:        d.Day.Format("2006-01-02"),
			HelpfulRate: d.HelpfulRate,
		})
	}
	return stats, nil
}
