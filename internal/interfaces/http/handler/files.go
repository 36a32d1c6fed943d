// Package handler 提供 HTTP 请求处理器
package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/docparse"
	"ops-portal-api/internal/config"
	"ops-portal-api/internal/interfaces/http/dto"
	"ops-portal-api/pkg/errors"
)

// FilesHandler 表形式プレビューとテキスト抽出の処理器
type FilesHandler struct {
	files *config.FilesConfig
}

// NewFilesHandler 创建ファイル処理器
func NewFilesHandler(files *config.FilesConfig) *FilesHandler {
	return &FilesHandler{files: files}
}

// Preview CSV/Excel の軽量プレビュー。
// Excel は全シートを縦連結し、先頭列に __sheet__ を付けて CSV で返す。
// @Summary 表形式ファイルのプレビュー
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV / XLSX / XLS"
// @Success 200 {object} docparse.PreviewResult
// @Failure 415 {object} dto.ErrorResponse
// @Router /files/preview [post]
func (h *FilesHandler) Preview(c *gin.Context) {
	name, raw, ok := h.readUpload(c, "uploaded")
	if !ok {
		return
	}

	limit := 0
	if h.files != nil {
		limit = h.files.PreviewLimit
	}
	result, err := docparse.Preview(name, raw, limit)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Parse アップロードファイルからテキストを抽出する
// @Summary ファイルのテキスト抽出
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "アップロードファイル"
// @Success 200 {object} dto.ParseResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/parse [post]
func (h *FilesHandler) Parse(c *gin.Context) {
	name, raw, ok := h.readUpload(c, "uploaded_file")
	if !ok {
		return
	}

	text, err := docparse.ExtractText(name, raw)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ParseResponse{OK: true, Text: text})
}

// readUpload multipart の file フィールドを読み切る。失敗時は応答済み。
func (h *FilesHandler) readUpload(c *gin.Context, fallbackName string) (string, []byte, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "file is required")
		return "", nil, false
	}
	defer file.Close()

	if h.files != nil && h.files.MaxUploadMB > 0 {
		if max := int64(h.files.MaxUploadMB) << 20; header.Size > max {
			dto.Fail(c, errors.New(errors.CodePayloadTooLarge,
				fmt.Sprintf("file too large (max %dMB)", h.files.MaxUploadMB)))
			return "", nil, false
		}
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		dto.Fail(c, errors.Wrap(err, errors.CodeInternalError, fmt.Sprintf("parse failed: %v", err)))
		return "", nil, false
	}

	name := header.Filename
	if name == "" {
		name = fallbackName
	}
	return name, raw, true
}
