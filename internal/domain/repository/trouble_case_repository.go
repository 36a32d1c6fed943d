// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"ops-portal-api/internal/domain/entity"
)

// CaseFilter 事例メタ情報の絞り込み条件。
// 重大度が解析できない事例はフィルタを通過させ、
// 発生日が解析できない事例は年数フィルタで除外する。
type CaseFilter struct {
	Years       int
	SeverityMin *float64
	SeverityMax *float64
	Products    []string
	Tags        []string
}

// IsZero 是否未指定任何条件
func (f *CaseFilter) IsZero() bool {
	return f == nil || (f.Years <= 0 && f.SeverityMin == nil && f.SeverityMax == nil &&
		len(f.Products) == 0 && len(f.Tags) == 0)
}

// Matches 判断单个事例是否通过过滤
func (f *CaseFilter) Matches(c *entity.TroubleCase, now time.Time) bool {
	if f.IsZero() {
		return true
	}
	if f.Years > 0 {
		if c.OccurredAt == nil {
			return false
		}
		threshold := now.AddDate(0, 0, -365*f.Years)
		if c.OccurredAt.Before(threshold) {
			return false
		}
	}
	if c.SeverityLevel != nil {
		if f.SeverityMin != nil && *c.SeverityLevel < *f.SeverityMin {
			return false
		}
		if f.SeverityMax != nil && *c.SeverityLevel > *f.SeverityMax {
			return false
		}
	}
	if len(f.Products) > 0 {
		found := false
		for _, p := range f.Products {
			if c.Product == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Tags) > 0 && !c.HasAnyTag(f.Tags) {
		return false
	}
	return true
}

// TroubleCaseRepository 事例仓储接口
type TroubleCaseRepository interface {
	// Upsert 批量写入事例（主キー重複時は上書き）
	Upsert(ctx context.Context, cases []*entity.TroubleCase) error

	// GetByID 根据 ID 获取事例
	GetByID(ctx context.Context, id string) (*entity.TroubleCase, error)

	// ListByIDs 批量获取事例
	ListByIDs(ctx context.Context, ids []string) ([]*entity.TroubleCase, error)

	// ListAll 获取全部事例（TF-IDF 语料构建用）
	ListAll(ctx context.Context) ([]*entity.TroubleCase, error)

	// FilterIDs 返回通过过滤条件的事例 ID 集合
	FilterIDs(ctx context.Context, filter *CaseFilter) ([]string, error)

	// Update 更新事例
	Update(ctx context.Context, c *entity.TroubleCase) error

	// Count 事例总数
	Count(ctx context.Context) (int64, error)
}
