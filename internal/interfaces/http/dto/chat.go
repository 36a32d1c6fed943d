// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"ops-portal-api/internal/domain/entity"
)

// SessionResponse セッション発行応答
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// ChatMessageDTO 会話メッセージ
type ChatMessageDTO struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// ChatRequest /api/chat の要求。
// session_id + user_text か、messages 全量のどちらかを受け付ける。
type ChatRequest struct {
	SessionID string           `json:"session_id"`
	UserText  string           `json:"user_text"`
	Messages  []ChatMessageDTO `json:"messages"`
}

// ToEntityMessages リクエストのメッセージ列をエンティティへ変換する
func (r *ChatRequest) ToEntityMessages() []entity.ChatMessage {
	if r == nil || len(r.Messages) == 0 {
		return nil
	}
	out := make([]entity.ChatMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		out = append(out, entity.ChatMessage{
			Role:    entity.Role(m.Role),
			Content: m.Content,
		})
	}
	return out
}
