// Package handler 提供 HTTP 请求处理器
package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/jsonagent"
	"ops-portal-api/internal/interfaces/http/dto"
)

// QuotationHandler 見積 JSON エージェント処理器
type QuotationHandler struct {
	svc *jsonagent.Service
}

// NewQuotationHandler 创建見積エージェント処理器
func NewQuotationHandler(svc *jsonagent.Service) *QuotationHandler {
	return &QuotationHandler{svc: svc}
}

// Tree データディレクトリ構成を返す
// @Summary 保存済みファイルのツリー表示
// @Tags Quotation
// @Produce json
// @Success 200 {object} dto.TreeResponse
// @Router /api/tree [get]
func (h *QuotationHandler) Tree(c *gin.Context) {
	c.JSON(http.StatusOK, dto.TreeResponse{Text: h.svc.Tree()})
}

// HiteiDedupe 該非判定書を抽出し、同一内容なら既存ファイルを再利用する
// @Summary 該非判定書の重複排除保存
// @Tags Quotation
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "該非判定書"
// @Success 200 {object} dto.DedupeResponse
// @Router /api/hitei-dedupe [post]
func (h *QuotationHandler) HiteiDedupe(c *gin.Context) {
	name, raw, ok := readMultipartFile(c)
	if !ok {
		return
	}

	text, message, err := h.svc.Dedupe(name, raw)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DedupeResponse{OK: true, Text: text, Message: message})
}

// Generate 発注書と該非判定書から見積 JSON を生成する
// @Summary 見積 JSON 生成
// @Tags Quotation
// @Accept json
// @Produce json
// @Param body body dto.QuotationGenerateRequest true "生成要求"
// @Success 200 {object} dto.QuotationGenerateResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/generate [post]
func (h *QuotationHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.QuotationGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	data, err := h.svc.Generate(ctx, jsonagent.GenerateInput{
		POText:      req.POText,
		HiteiText:   req.HiteiText,
		Instruction: req.Instruction,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QuotationGenerateResponse{OK: true, Data: data})
}

// Diff 現行 JSON とプレビュー JSON の unified diff を返す
// @Summary 見積 JSON の差分表示
// @Tags Quotation
// @Accept json
// @Produce json
// @Param body body dto.DiffRequest true "差分要求"
// @Success 200 {object} dto.DiffResponse
// @Router /api/diff [post]
func (h *QuotationHandler) Diff(c *gin.Context) {
	var req dto.DiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	diff, err := h.svc.Diff(req.CurrentJSON, req.PreviewJSON)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DiffResponse{OK: true, Diff: diff})
}

// RenderExcel 見積 JSON をテンプレートに流し込み xlsx を返す
// @Summary 見積書 Excel 出力
// @Tags Quotation
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 "xlsx file"
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/excel/render [post]
func (h *QuotationHandler) RenderExcel(c *gin.Context) {
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.svc.Render(data)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="quotation.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

// readMultipartFile multipart の file フィールドを読み切る。失敗時は応答済み。
func readMultipartFile(c *gin.Context) (string, []byte, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "file is required")
		return "", nil, false
	}
	defer file.Close()

	raw, readErr := io.ReadAll(file)
	if readErr != nil {
		dto.BadRequest(c, "failed to read upload: "+readErr.Error())
		return "", nil, false
	}

	name := header.Filename
	if name == "" {
		name = "uploaded_file"
	}
	return name, raw, true
}
