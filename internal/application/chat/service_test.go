package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/pkg/errors"
)

type fakeSessionStore struct {
	sessions map[string]*entity.ChatSession
	saveErr  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*entity.ChatSession)}
}

func (f *fakeSessionStore) Save(_ context.Context, session *entity.ChatSession, _ time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, id string) (*entity.ChatSession, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func TestCreateSession(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewService(store, nil, &config.ChatConfig{})

	session, err := svc.CreateSession(context.Background(), "E001")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "E001", session.EmployeeID)
	assert.Contains(t, store.sessions, session.ID)
}

func TestCommitTurn(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewService(store, nil, &config.ChatConfig{})

	session := entity.NewChatSession("s1", "")
	store.sessions["s1"] = session

	require.NoError(t, svc.CommitTurn(context.Background(), "s1", "質問", "回答"))
	require.Len(t, session.Messages, 2)
	assert.Equal(t, entity.RoleUser, session.Messages[0].Role)
	assert.Equal(t, "質問", session.Messages[0].Content)
	assert.Equal(t, entity.RoleAssistant, session.Messages[1].Role)
	assert.Equal(t, "回答", session.Messages[1].Content)
}

func TestCommitTurn_UnknownSession(t *testing.T) {
	svc := NewService(newFakeSessionStore(), nil, &config.ChatConfig{})

	err := svc.CommitTurn(context.Background(), "missing", "q", "a")
	require.Error(t, err)
	assert.Equal(t, errors.ErrSessionNotFound, err)
}

func TestAttachFile(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewService(store, nil, &config.ChatConfig{UploadMaxRune: 10})

	session := entity.NewChatSession("s1", "")
	store.sessions["s1"] = session

	text := strings.Repeat("あ", 25)
	res, err := svc.AttachFile(context.Background(), "s1", "報告書.pdf", text)
	require.NoError(t, err)

	assert.Equal(t, "報告書.pdf", res.Filename)
	assert.Equal(t, 25, res.CharsTotal)
	assert.Equal(t, 10, res.CharsUsedInContext)
	assert.Equal(t, text, res.Preview)

	require.Len(t, session.Messages, 1)
	content := session.Messages[0].Content
	assert.Contains(t, content, "報告書.pdf")
	assert.Contains(t, content, strings.Repeat("あ", 10))
	assert.NotContains(t, content, strings.Repeat("あ", 11))
}

func TestOutboundMessages_SessionMode(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewService(store, nil, &config.ChatConfig{SystemPrompt: "テスト用システム"})

	session := entity.NewChatSession("s1", "")
	session.Append(entity.RoleUser, "前の質問", 0)
	session.Append(entity.RoleAssistant, "前の回答", 0)
	store.sessions["s1"] = session

	msgs, err := svc.outboundMessages(context.Background(), StreamInput{SessionID: "s1", UserText: "今の質問"})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "テスト用システム", msgs[0].Content)
	assert.Equal(t, "前の質問", msgs[1].Content)
	assert.Equal(t, "前の回答", msgs[2].Content)
	assert.Equal(t, schema.User, msgs[3].Role)
	assert.Equal(t, "今の質問", msgs[3].Content)
}

func TestOutboundMessages_CompatMode(t *testing.T) {
	svc := NewService(newFakeSessionStore(), nil, &config.ChatConfig{})

	msgs, err := svc.outboundMessages(context.Background(), StreamInput{
		Messages: []entity.ChatMessage{{Role: entity.RoleUser, Content: "直接指定"}},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "直接指定", msgs[0].Content)
}

func TestOutboundMessages_Empty(t *testing.T) {
	svc := NewService(newFakeSessionStore(), nil, &config.ChatConfig{})

	_, err := svc.outboundMessages(context.Background(), StreamInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messages or (session_id & user_text) required")
}

func TestTrimMessages(t *testing.T) {
	msgs := []*schema.Message{schema.SystemMessage("sys")}
	for i := 0; i < 50; i++ {
		msgs = append(msgs, schema.UserMessage(fmt.Sprintf("m%d", i)))
	}
	msgs = append(msgs, schema.UserMessage("latest"))

	trimmed := trimMessages(msgs, 40)
	require.Len(t, trimmed, 40)
	assert.Equal(t, "sys", trimmed[0].Content)
	assert.Equal(t, "latest", trimmed[39].Content)
	// 中間は新しい側から 38 件残る
	assert.Equal(t, "m12", trimmed[1].Content)
}

func TestTrimMessages_NoTrim(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("hello"),
	}
	assert.Len(t, trimMessages(msgs, 40), 2)
}
