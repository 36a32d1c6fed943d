// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"ops-portal-api/internal/domain/entity"
)

type LLMUsageEventRepository interface {
	Create(ctx context.Context, event *entity.LLMUsageEvent) error
	GetTokenUsage(ctx context.Context, feature string, startInclusive, endExclusive time.Time) (int64, error)
}
