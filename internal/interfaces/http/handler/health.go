// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"ops-portal-api/internal/infrastructure/persistence/milvus"
	"ops-portal-api/internal/infrastructure/persistence/oracle"
	"ops-portal-api/internal/infrastructure/persistence/postgres"
	"ops-portal-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康検査処理器
type HealthHandler struct {
	pg     *postgres.Client
	redis  *redis.Client
	milvus *milvus.Client
	oracle *oracle.Client
}

// NewHealthHandler 创建健康検査処理器
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client, milvusClient *milvus.Client, oracleClient *oracle.Client) *HealthHandler {
	return &HealthHandler{
		pg:     pg,
		redis:  redisClient,
		milvus: milvusClient,
		oracle: oracleClient,
	}
}

// HealthResponse 健康検査応答
type HealthResponse struct {
	Status string `json:"status"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康検査
// @Summary 健康検査
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Healthz /api/healthz 互換エンドポイント
// @Summary 疎通確認
// @Tags System
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /api/healthz [get]
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Ready 就緒検査。依存先を並行に ping する。
// Postgres と Redis は必須、Milvus と Oracle は劣化扱いにとどめる。
// @Summary 就緒検査
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var (
		pgCheck     = &readinessCheck{Status: "unknown"}
		redisCheck  = &readinessCheck{Status: "unknown"}
		milvusCheck = &readinessCheck{Status: "disabled"}
		oracleCheck = &readinessCheck{Status: "disabled"}
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if h == nil || h.pg == nil {
			pgCheck.Status = "missing"
			pgCheck.Error = "postgres client not configured"
			return nil
		}
		runCheck(gctx, pgCheck, h.pg.HealthCheck)
		return nil
	})
	g.Go(func() error {
		if h == nil || h.redis == nil {
			redisCheck.Status = "missing"
			redisCheck.Error = "redis client not configured"
			return nil
		}
		runCheck(gctx, redisCheck, h.redis.HealthCheck)
		return nil
	})
	g.Go(func() error {
		if h == nil || h.milvus == nil {
			return nil
		}
		milvusCheck.Status = "unknown"
		runCheck(gctx, milvusCheck, h.milvus.HealthCheck)
		if milvusCheck.Status == "error" {
			milvusCheck.Status = "degraded"
		}
		return nil
	})
	g.Go(func() error {
		if h == nil || h.oracle == nil {
			return nil
		}
		oracleCheck.Status = "unknown"
		runCheck(gctx, oracleCheck, h.oracle.Ping)
		if oracleCheck.Status == "error" {
			oracleCheck.Status = "degraded"
		}
		return nil
	})
	_ = g.Wait()

	checks := map[string]*readinessCheck{
		"postgres": pgCheck,
		"redis":    redisCheck,
		"milvus":   milvusCheck,
		"oracle":   oracleCheck,
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if pgCheck.Status != "ok" || redisCheck.Status != "ok" {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活検査
// @Summary 存活検査
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func runCheck(ctx context.Context, check *readinessCheck, ping func(context.Context) error) {
	start := time.Now()
	err := ping(ctx)
	check.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		check.Status = "error"
		check.Error = err.Error()
		return
	}
	check.Status = "ok"
}
