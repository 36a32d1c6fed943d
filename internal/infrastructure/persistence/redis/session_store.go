// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ops-portal-api/internal/domain/entity"
)

var sessionTracer = otel.Tracer("redis.session")

const sessionKeyPrefix = "chat:session:"

// SessionStore 会話セッションストア
type SessionStore struct {
	client *Client
}

// NewSessionStore 创建セッションストア
func NewSessionStore(client *Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Save 保存セッション并刷新 TTL
func (s *SessionStore) Save(ctx context.Context, session *entity.ChatSession, ttl time.Duration) error {
	ctx, span := sessionTracer.Start(ctx, "session.Save",
		trace.WithAttributes(attribute.String("session_id", session.ID)))
	defer span.End()

	bytes, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.rdb.Set(ctx, sessionKey(session.ID), bytes, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get 获取セッション（不存在时返回 nil, nil）
func (s *SessionStore) Get(ctx context.Context, id string) (*entity.ChatSession, error) {
	ctx, span := sessionTracer.Start(ctx, "session.Get",
		trace.WithAttributes(attribute.String("session_id", id)))
	defer span.End()

	bytes, err := s.client.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session entity.ChatSession
	if err := json.Unmarshal(bytes, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete 删除セッション
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	ctx, span := sessionTracer.Start(ctx, "session.Delete",
		trace.WithAttributes(attribute.String("session_id", id)))
	defer span.End()

	if err := s.client.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
