// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ops-portal-api/internal/domain/entity"
)

// TacitNoteRepository 暗黙知ノート仓储实现
type TacitNoteRepository struct {
	client *Client
}

// NewTacitNoteRepository 创建暗黙知ノート仓储
func NewTacitNoteRepository(client *Client) *TacitNoteRepository {
	return &TacitNoteRepository{client: client}
}

// Create 创建ノート
func (r *TacitNoteRepository) Create(ctx context.Context, note *entity.TacitNote) error {
	ctx, span := tracer.Start(ctx, "postgres.TacitNoteRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(note).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create tacit note: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取ノート
func (r *TacitNoteRepository) GetByID(ctx context.Context, id int64) (*entity.TacitNote, error) {
	ctx, span := tracer.Start(ctx, "postgres.TacitNoteRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var note entity.TacitNote
	if err := db.First(&note, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get tacit note: %w", err)
	}
	return &note, nil
}

// Update 更新ノート
func (r *TacitNoteRepository) Update(ctx context.Context, note *entity.TacitNote) error {
	ctx, span := tracer.Start(ctx, "postgres.TacitNoteRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(note).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update tacit note: %w", err)
	}
	return nil
}

// List 获取ノート一覧（status 为空时返回全部）
func (r *TacitNoteRepository) List(ctx context.Context, status entity.TacitNoteStatus) ([]*entity.TacitNote, error) {
	ctx, span := tracer.Start(ctx, "postgres.TacitNoteRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.TacitNote{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var notes []*entity.TacitNote
	if err := query.Order("id").Find(&notes).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list tacit notes: %w", err)
	}
	return notes, nil
}

// ListApprovedUnmerged 获取承認済み・未マージのノート
func (r *TacitNoteRepository) ListApprovedUnmerged(ctx context.Context) ([]*entity.TacitNote, error) {
	ctx, span := tracer.Start(ctx, "postgres.TacitNoteRepository.ListApprovedUnmerged")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var notes []*entity.TacitNote
	if err := db.Where("status = ? AND merged = false", entity.TacitNoteStatusApproved).
		Order("id").Find(&notes).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list approved notes: %w", err)
	}
	return notes, nil
}

// MarkMerged 批量标记已合并
func (r *TacitNoteRepository) MarkMerged(ctx context.Context, ids []int64) error {
	ctx, span := tracer.Start(ctx, "postgres.TacitNoteRepository.MarkMerged")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.TacitNote{}).Where("id IN ?", ids).
		Update("merged", true).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark notes merged: %w", err)
	}
	return nil
}
