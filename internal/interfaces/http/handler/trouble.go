// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/application/tacit"
	"ops-portal-api/internal/application/troublesearch"
	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/interfaces/http/dto"
)

const (
	defaultSearchTopK  = 20
	defaultSearchAlpha = 0.5
)

// TroubleHandler 障害事例検索・暗黙知処理器
type TroubleHandler struct {
	engine   *troublesearch.Engine
	feedback *troublesearch.FeedbackService
	tacit    *tacit.Service
}

// NewTroubleHandler 创建障害事例処理器
func NewTroubleHandler(engine *troublesearch.Engine, feedback *troublesearch.FeedbackService, tacitSvc *tacit.Service) *TroubleHandler {
	return &TroubleHandler{
		engine:   engine,
		feedback: feedback,
		tacit:    tacitSvc,
	}
}

// Search 障害事例のハイブリッド検索
// @Summary 障害事例検索
// @Tags Trouble
// @Produce json
// @Param q query string true "検索クエリ"
// @Param years query int false "直近 N 年に絞る"
// @Param severity_min query number false "深刻度下限"
// @Param severity_max query number false "深刻度上限"
// @Param products query []string false "製品名フィルタ"
// @Param tags query []string false "タグフィルタ"
// @Param top_k query int false "取得件数" default(20)
// @Param alpha query number false "語彙スコアの比重 0〜1" default(0.5)
// @Success 200 {object} dto.TroubleSearchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/trouble/search [get]
func (h *TroubleHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		dto.BadRequest(c, "q is required")
		return
	}

	in := troublesearch.SearchInput{
		Query:       query,
		TopK:        queryInt(c, "top_k", defaultSearchTopK),
		Alpha:       queryFloat(c, "alpha", defaultSearchAlpha),
		Years:       queryInt(c, "years", 0),
		SeverityMin: queryFloatPtr(c, "severity_min"),
		SeverityMax: queryFloatPtr(c, "severity_max"),
		Products:    c.QueryArray("products"),
		Tags:        c.QueryArray("tags"),
	}

	out, err := h.engine.Search(ctx, in)
	if err != nil {
		if errors.Is(err, troublesearch.ErrVectorDisabled) {
			dto.FailWith(c, http.StatusServiceUnavailable, "trouble search is not available")
			return
		}
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTroubleSearchResponse(out))
}

// Feedback 検索結果の有用性フィードバック登録
// @Summary 検索フィードバック登録
// @Tags Trouble
// @Accept json
// @Produce json
// @Param body body dto.FeedbackRequest true "フィードバック"
// @Success 200 {object} dto.StatusResponse
// @Router /api/trouble/feedback [post]
func (h *TroubleHandler) Feedback(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	employeeID := ""
	if emp := CurrentEmployee(c); emp != nil {
		employeeID = emp.ID
	}
	err := h.feedback.Record(ctx, &troublesearch.FeedbackInput{
		Query:      req.Query,
		CaseID:     req.CaseID,
		Helpful:    req.Helpful != nil && *req.Helpful,
		SolveHours: req.SolveHours,
		Extra:      req.Extra,
		EmployeeID: employeeID,
	})
	if err != nil {
		if errors.Is(err, troublesearch.ErrEmptyQuery) {
			dto.BadRequest(c, "query is required")
			return
		}
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "ok"})
}

// TacitSubmit 暗黙知メモの投稿。pending 状態で保存される。
// @Summary 暗黙知メモ投稿
// @Tags Trouble
// @Accept json
// @Produce json
// @Param body body dto.TacitSubmitRequest true "暗黙知メモ"
// @Success 200 {object} dto.StatusResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/trouble/tacit [post]
func (h *TroubleHandler) TacitSubmit(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TacitSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	_, err := h.tacit.Submit(ctx, &tacit.SubmitInput{
		CaseID:   req.CaseID,
		Note:     req.Note,
		Category: req.Category,
		Author:   req.Author,
	})
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "ok"})
}

// TacitList 暗黙知メモの一覧。status で絞り込める。
// @Summary 暗黙知メモ一覧
// @Tags Trouble
// @Produce json
// @Param status query string false "pending / approved"
// @Success 200 {object} dto.TacitListResponse
// @Router /api/trouble/tacit/list [get]
func (h *TroubleHandler) TacitList(c *gin.Context) {
	ctx := c.Request.Context()

	notes, err := h.tacit.List(ctx, entity.TacitNoteStatus(c.Query("status")))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	if notes == nil {
		notes = []*entity.TacitNote{}
	}
	c.JSON(http.StatusOK, dto.TacitListResponse{Count: len(notes), Results: notes})
}

// TacitApprove 暗黙知メモの承認
// @Summary 暗黙知メモ承認
// @Tags Trouble
// @Accept json
// @Produce json
// @Param body body dto.TacitApproveRequest true "承認要求"
// @Success 200 {object} dto.StatusResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/trouble/tacit/approve [post]
func (h *TroubleHandler) TacitApprove(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TacitApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if _, err := h.tacit.Approve(ctx, req.RowID, req.Approver); err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "ok"})
}

// TacitApply 承認済みメモを事例本体へマージし、再索引を促す
// @Summary 承認済み暗黙知の反映
// @Tags Trouble
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Router /api/trouble/tacit/apply [post]
func (h *TroubleHandler) TacitApply(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := h.tacit.Apply(ctx); err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "updated"})
}

// Analytics フィードバックの集計値を返す
// @Summary 検索フィードバック統計
// @Tags Trouble
// @Produce json
// @Success 200 {object} entity.FeedbackStats
// @Router /api/trouble/analytics [get]
func (h *TroubleHandler) Analytics(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.feedback.Stats(ctx)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryFloat(c *gin.Context, name string, def float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func queryFloatPtr(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
