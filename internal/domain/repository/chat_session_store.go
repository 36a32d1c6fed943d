// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"ops-portal-api/internal/domain/entity"
)

// ChatSessionStore 会話セッションの保存先（Redis 実装を想定）。
// Get は存在しないセッションに対して (nil, nil) を返す。
type ChatSessionStore interface {
	// Save 保存セッション并刷新 TTL
	Save(ctx context.Context, session *entity.ChatSession, ttl time.Duration) error

	// Get 获取セッション
	Get(ctx context.Context, id string) (*entity.ChatSession, error)

	// Delete 删除セッション
	Delete(ctx context.Context, id string) error
}
