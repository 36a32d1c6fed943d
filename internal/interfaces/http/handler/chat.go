// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/chat"
	"ops-portal-api/internal/application/docparse"
	"ops-portal-api/internal/config"
	"ops-portal-api/internal/interfaces/http/dto"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/metrics"
)

// ChatHandler SSE 会話処理器
type ChatHandler struct {
	svc   *chat.Service
	files *config.FilesConfig
}

// NewChatHandler 创建会話処理器
func NewChatHandler(svc *chat.Service, files *config.FilesConfig) *ChatHandler {
	return &ChatHandler{svc: svc, files: files}
}

// CreateSession セッション発行
// @Summary 会話セッション発行
// @Tags Chat
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Router /api/session [post]
func (h *ChatHandler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()

	employeeID := ""
	if emp := CurrentEmployee(c); emp != nil {
		employeeID = emp.ID
	}
	session, err := h.svc.CreateSession(ctx, employeeID)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SessionResponse{SessionID: session.ID})
}

// Upload ファイルアップロード。
// 抽出テキストをセッション履歴に積み、フロントへはプレビューのみ返す。
// @Summary 会話コンテキスト用ファイルアップロード
// @Tags Chat
// @Accept multipart/form-data
// @Produce json
// @Param session_id formData string true "セッション ID"
// @Param file formData file true "アップロードファイル"
// @Success 200 {object} chat.UploadResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /api/upload [post]
func (h *ChatHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID := strings.TrimSpace(c.PostForm("session_id"))
	if sessionID == "" {
		dto.BadRequest(c, "invalid session_id")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if max := h.maxUploadBytes(); max > 0 && header.Size > max {
		dto.Fail(c, errors.New(errors.CodePayloadTooLarge,
			fmt.Sprintf("file too large (max %dMB)", h.files.MaxUploadMB)))
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		dto.Fail(c, errors.Wrap(err, errors.CodeInternalError, fmt.Sprintf("upload failed: %v", err)))
		return
	}
	if len(raw) == 0 {
		dto.BadRequest(c, "empty file")
		return
	}

	filename := header.Filename
	if filename == "" {
		filename = "uploaded_file"
	}

	text, err := docparse.ExtractText(filename, raw)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	result, err := h.svc.AttachFile(ctx, sessionID, filename, text)
	if err != nil {
		if errors.AsAppError(err).Code == errors.CodeSessionNotFound {
			dto.BadRequest(c, "invalid session_id")
			return
		}
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// sseChunk アシスタント応答の増分。OpenAI ストリーム互換の形で返す。
type sseChunk struct {
	Choices []sseChoice `json:"choices"`
}

type sseChoice struct {
	Delta sseDelta `json:"delta"`
}

type sseDelta struct {
	Content string `json:"content"`
}

// Stream ストリーミング会話（SSE）。
// A) {session_id, user_text} か B) {messages} のどちらかを受け付ける。
// @Summary 会話ストリーミング
// @Tags Chat
// @Accept json
// @Produce text/event-stream
// @Param body body dto.ChatRequest true "会話要求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/chat [post]
func (h *ChatHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sessionMode := req.SessionID != "" && strings.TrimSpace(req.UserText) != ""
	in := chat.StreamInput{
		SessionID: req.SessionID,
		UserText:  req.UserText,
		Messages:  req.ToEntityMessages(),
	}

	reader, err := h.svc.Stream(ctx, in)
	if err != nil {
		// 入力不備やセッション切れはストリーム開始前なので通常の JSON で返す
		if errors.AsAppError(err).Code != errors.CodeLLMCallFailed {
			dto.Fail(c, err)
			return
		}
		h.sseHeaders(c)
		writeSSEJSON(c, gin.H{"error": errors.AsAppError(err).Message})
		writeSSEDone(c)
		return
	}
	defer reader.Close()

	metrics.ChatStreamsActive.Inc()
	start := time.Now()
	defer func() {
		metrics.ChatStreamsActive.Dec()
		metrics.ChatStreamDuration.Observe(time.Since(start).Seconds())
	}()

	h.sseHeaders(c)

	var assistant strings.Builder
	for {
		msg, recvErr := reader.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			logger.Error(ctx, "chat stream interrupted", recvErr, "session_id", req.SessionID)
			writeSSEJSON(c, gin.H{"error": "Upstream connection error: " + recvErr.Error()})
			break
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		assistant.WriteString(msg.Content)
		writeSSEJSON(c, sseChunk{Choices: []sseChoice{{Delta: sseDelta{Content: msg.Content}}}})
	}
	writeSSEDone(c)

	// 切断後も履歴は書き戻す
	if sessionMode {
		commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := h.svc.CommitTurn(commitCtx, req.SessionID, req.UserText, assistant.String()); err != nil {
			logger.Warn(ctx, "failed to commit chat turn", "session_id", req.SessionID, "error", err)
		}
	}
}

// ChatTest 非ストリーミングの疎通確認
// @Summary LLM 疎通確認
// @Tags Chat
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/chat-test [post]
func (h *ChatHandler) ChatTest(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	msgs := req.ToEntityMessages()
	if len(msgs) == 0 {
		dto.BadRequest(c, "messages is required")
		return
	}

	content, err := h.svc.Complete(ctx, msgs)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"choices": []gin.H{
			{"message": gin.H{"role": "assistant", "content": content}},
		},
	})
}

func (h *ChatHandler) sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()
}

func (h *ChatHandler) maxUploadBytes() int64 {
	if h.files == nil || h.files.MaxUploadMB <= 0 {
		return 0
	}
	return int64(h.files.MaxUploadMB) << 20
}

func writeSSEJSON(c *gin.Context, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", b)
	c.Writer.Flush()
}

func writeSSEDone(c *gin.Context) {
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}
