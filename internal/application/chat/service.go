// Package chat SSE 会話アシスタントのセッション管理とストリーミング
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/domain/repository"
	"ops-portal-api/internal/infrastructure/llm"
	einoobs "ops-portal-api/internal/observability/eino"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
)

const (
	defaultSystemPrompt = "あなたは有能なアシスタントです。すべて日本語で回答してください。"
	defaultHistoryLimit = 100
	defaultWindowSize   = 40
	defaultSessionTTL   = 30 * 24 * time.Hour
	defaultUploadRunes  = 20000

	uploadPreviewRunes = 400
)

// Service 会話アシスタントサービス
type Service struct {
	store   repository.ChatSessionStore
	factory *llm.EinoFactory
	cfg     *config.ChatConfig
}

// NewService 创建会話サービス
func NewService(store repository.ChatSessionStore, factory *llm.EinoFactory, cfg *config.ChatConfig) *Service {
	return &Service{
		store:   store,
		factory: factory,
		cfg:     cfg,
	}
}

// CreateSession 发行新しいセッション ID
func (s *Service) CreateSession(ctx context.Context, employeeID string) (*entity.ChatSession, error) {
	session := entity.NewChatSession(uuid.NewString(), employeeID)
	if err := s.store.Save(ctx, session, s.sessionTTL()); err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to create session")
	}
	return session, nil
}

// StreamInput /api/chat の入力。SessionID+UserText か Messages のどちらか。
type StreamInput struct {
	SessionID string
	UserText  string
	Messages  []entity.ChatMessage
}

// Stream アシスタント応答のストリームを開始する。
// Reader の Close は呼び出し側の責務。履歴反映は CommitTurn で行う。
func (s *Service) Stream(ctx context.Context, in StreamInput) (*schema.StreamReader[*schema.Message], error) {
	msgs, err := s.outboundMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	provider := s.factory.ResolveProvider("")
	ctx = einoobs.WithFeatureProvider(ctx, "chat_stream", provider)

	chatModel, err := s.factory.Default(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLLMCallFailed, "failed to init llm client")
	}
	reader, err := chatModel.Stream(ctx, msgs)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLLMCallFailed, "failed to start chat stream")
	}
	return reader, nil
}

// CommitTurn ストリーム完了後に user/assistant の 2 メッセージを履歴へ反映する
func (s *Service) CommitTurn(ctx context.Context, sessionID, userText, assistantText string) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Append(entity.RoleUser, userText, s.historyLimit())
	session.Append(entity.RoleAssistant, assistantText, s.historyLimit())
	if err := s.store.Save(ctx, session, s.sessionTTL()); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "failed to save session")
	}
	return nil
}

// Complete 非ストリーミングの疎通確認用
func (s *Service) Complete(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", errors.New(errors.CodeInvalidParam, "messages is required")
	}

	provider := s.factory.ResolveProvider("")
	ctx = einoobs.WithFeatureProvider(ctx, "chat_completion", provider)

	chatModel, err := s.factory.Default(ctx)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeLLMCallFailed, "failed to init llm client")
	}
	outMsg, err := chatModel.Generate(ctx, toSchemaMessages(messages))
	if err != nil {
		logger.Error(ctx, "chat completion failed", err)
		return "", errors.Wrap(err, errors.CodeLLMCallFailed, "test call failed")
	}
	if outMsg == nil {
		return "", errors.New(errors.CodeLLMCallFailed, "empty llm response")
	}
	return outMsg.Content, nil
}

// UploadResult アップロード応答。本文全量は返さない。
type UploadResult struct {
	Filename           string `json:"filename"`
	Preview            string `json:"preview"`
	CharsTotal         int    `json:"chars_total"`
	CharsUsedInContext int    `json:"chars_used_in_context"`
}

// AttachFile 抽出済みテキストをセッション履歴に user メッセージとして積む
func (s *Service) AttachFile(ctx context.Context, sessionID, filename, text string) (*UploadResult, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	runes := []rune(text)
	contextRunes := runes
	if max := s.uploadMaxRunes(); len(contextRunes) > max {
		contextRunes = contextRunes[:max]
	}
	contextText := string(contextRunes)

	session.Append(entity.RoleUser, fmt.Sprintf(
		"以下はユーザーがアップロードしたファイル「%s」の内容です。\n以後の質問に回答する際は、この内容を前提として参照してください。\n\n%s",
		filename, contextText), s.historyLimit())
	if err := s.store.Save(ctx, session, s.sessionTTL()); err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to save session")
	}

	preview := runes
	if len(preview) > uploadPreviewRunes {
		preview = preview[:uploadPreviewRunes]
	}
	return &UploadResult{
		Filename:           filename,
		Preview:            string(preview),
		CharsTotal:         len(runes),
		CharsUsedInContext: len(contextRunes),
	}, nil
}

// outboundMessages system + 履歴 + 現在の user を組み立ててトリムする
func (s *Service) outboundMessages(ctx context.Context, in StreamInput) ([]*schema.Message, error) {
	if in.SessionID != "" && strings.TrimSpace(in.UserText) != "" {
		session, err := s.getSession(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		msgs := make([]*schema.Message, 0, len(session.Messages)+2)
		msgs = append(msgs, schema.SystemMessage(s.systemPrompt()))
		msgs = append(msgs, toSchemaMessages(session.Messages)...)
		msgs = append(msgs, schema.UserMessage(in.UserText))
		return trimMessages(msgs, s.windowSize()), nil
	}

	if len(in.Messages) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "messages or (session_id & user_text) required")
	}
	return toSchemaMessages(in.Messages), nil
}

func (s *Service) getSession(ctx context.Context, id string) (*entity.ChatSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New(errors.CodeInvalidParam, "session_id is required")
	}
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to load session")
	}
	if session == nil {
		return nil, errors.ErrSessionNotFound
	}
	return session, nil
}

// trimMessages メッセージ数ベースの簡易トリム。
// 先頭の system と最新の user は必ず残す。
func trimMessages(msgs []*schema.Message, max int) []*schema.Message {
	if max <= 2 || len(msgs) <= max {
		return msgs
	}
	head := msgs[0:1]
	tail := msgs[len(msgs)-1:]
	middle := msgs[1 : len(msgs)-1]
	middle = middle[len(middle)-(max-2):]

	out := make([]*schema.Message, 0, max)
	out = append(out, head...)
	out = append(out, middle...)
	out = append(out, tail...)
	return out
}

func toSchemaMessages(messages []entity.ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case entity.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case entity.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

func (s *Service) systemPrompt() string {
	if s.cfg != nil && strings.TrimSpace(s.cfg.SystemPrompt) != "" {
		return s.cfg.SystemPrompt
	}
	return defaultSystemPrompt
}

func (s *Service) historyLimit() int {
	if s.cfg != nil && s.cfg.HistoryLimit > 0 {
		return s.cfg.HistoryLimit
	}
	return defaultHistoryLimit
}

func (s *Service) windowSize() int {
	if s.cfg != nil && s.cfg.WindowSize > 0 {
		return s.cfg.WindowSize
	}
	return defaultWindowSize
}

func (s *Service) sessionTTL() time.Duration {
	if s.cfg != nil && s.cfg.SessionTTL > 0 {
		return s.cfg.SessionTTL
	}
	return defaultSessionTTL
}

func (s *Service) uploadMaxRunes() int {
	if s.cfg != nil && s.cfg.UploadMaxRune > 0 {
		return s.cfg.UploadMaxRune
	}
	return defaultUploadRunes
}
