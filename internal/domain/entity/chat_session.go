// Package entity 定义领域实体
package entity

import "time"

// ChatMessage 会話中の1メッセージ
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession 会話セッション。Redis に JSON で保存される。
// アップロード資料も user メッセージとして履歴に入る。
type ChatSession struct {
	ID         string        `json:"session_id"`
	EmployeeID string        `json:"employee_id,omitempty"`
	Messages   []ChatMessage `json:"messages"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewChatSession 创建会話セッション
func NewChatSession(id, employeeID string) *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:         id,
		EmployeeID: employeeID,
		Messages:   []ChatMessage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Append 追加メッセージ。履歴上限を超えた古いメッセージは切り捨てる。
func (s *ChatSession) Append(role Role, content string, limit int) {
	s.Messages = append(s.Messages, ChatMessage{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if limit > 0 && len(s.Messages) > limit {
		s.Messages = s.Messages[len(s.Messages)-limit:]
	}
	s.UpdatedAt = time.Now()
}

// Window 返回最近 n 件のメッセージ（モデル入力用）
func (s *ChatSession) Window(n int) []ChatMessage {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
