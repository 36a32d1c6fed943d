// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/domain/repository"
)

// TroubleCaseRepository 事例仓储实现
type TroubleCaseRepository struct {
	client *Client
}

// NewTroubleCaseRepository 创建事例仓储
func NewTroubleCaseRepository(client *Client) *TroubleCaseRepository {
	return &TroubleCaseRepository{client: client}
}

// Upsert 批量写入事例
func (r *TroubleCaseRepository) Upsert(ctx context.Context, cases []*entity.TroubleCase) error {
	ctx, span := tracer.Start(ctx, "postgres.TroubleCaseRepository.Upsert")
	defer span.End()

	if len(cases) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(cases).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert cases: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取事例
func (r *TroubleCaseRepository) GetByID(ctx context.Context, id string) (*entity.TroubleCase, error) {
	ctx, span := tracer.Start(ctx, "postgres.TroubleCaseRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var c entity.TroubleCase
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

// ListByIDs 批量获取事例
func (r *TroubleCaseRepository) ListByIDs(ctx context.Context, ids []string) ([]*entity.TroubleCase, error) {
	ctx, span := tracer.Start(ctx, "postgres.TroubleCaseRepository.ListByIDs")
	defer span.End()

	if len(ids) == 0 {
		return []*entity.TroubleCase{}, nil
	}

	db := getDB(ctx, r.client.db)
	var cases []*entity.TroubleCase
	if err := db.Find(&cases, "id IN ?", ids).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list cases by ids: %w", err)
	}
	return cases, nil
}

// ListAll 获取全部事例
func (r *TroubleCaseRepository) ListAll(ctx context.Context) ([]*entity.TroubleCase, error) {
	ctx, span := tracer.Start(ctx, "postgres.TroubleCaseRepository.ListAll")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var cases []*entity.TroubleCase
	if err := db.Order("id").Find(&cases).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// FilterIDs 返回通过过滤条件的事例 ID 集合。
// 重大度レベルが NULL（解析不能）の行はフィルタを通過させ、
// 発生日が NULL の行は年数フィルタで除外する。
func (r *TroubleCaseRepository) FilterIDs(ctx context.Context, filter *repository.CaseFilter) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.TroubleCaseRepository.FilterIDs")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.TroubleCase{})

	if filter != nil {
		if filter.Years > 0 {
			threshold := time.Now().AddDate(0, 0, -365*filter.Years)
			query = query.Where("occurred_at IS NOT NULL AND occurred_at >= ?", threshold)
		}
		if filter.SeverityMin != nil {
			query = query.Where("severity_level IS NULL OR severity_level >= ?", *filter.SeverityMin)
		}
		if filter.SeverityMax != nil {
			query = query.Where("severity_level IS NULL OR severity_level <= ?", *filter.SeverityMax)
		}
		if len(filter.Products) > 0 {
			query = query.Where("product IN ?", filter.Products)
		}
		if len(filter.Tags) > 0 {
			query = query.Where("tags && ?", pq.Array(filter.Tags))
		}
	}

	var ids []string
	if err := query.Pluck("id", &ids).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to filter cases: %w", err)
	}
	return ids, nil
}

// Update 更新事例
func (r *TroubleCaseRepository) Update(ctx context.Context, c *entity.TroubleCase) error {
	ctx, span := tracer.Start(ctx, "postgres.TroubleCaseRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(c).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update case: %w", err)
	}
	return nil
}

// Count 事例总数
func (r *TroubleCaseRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.TroubleCaseRepository.Count")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.TroubleCase{}).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return count, nil
}
