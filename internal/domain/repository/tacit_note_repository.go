// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"ops-portal-api/internal/domain/entity"
)

// TacitNoteRepository 暗黙知ノート仓储接口
type TacitNoteRepository interface {
	// Create 创建ノート
	Create(ctx context.Context, note *entity.TacitNote) error

	// GetByID 根据 ID 获取ノート
	GetByID(ctx context.Context, id int64) (*entity.TacitNote, error)

	// Update 更新ノート
	Update(ctx context.Context, note *entity.TacitNote) error

	// List 获取ノート一覧（status 为空时返回全部）
	List(ctx context.Context, status entity.TacitNoteStatus) ([]*entity.TacitNote, error)

	// ListApprovedUnmerged 获取承認済み・未マージのノート
	ListApprovedUnmerged(ctx context.Context) ([]*entity.TacitNote, error)

	// MarkMerged 批量标记已合并
	MarkMerged(ctx context.Context, ids []int64) error
}
