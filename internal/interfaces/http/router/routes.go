// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ops-portal-api/internal/interfaces/http/handler"
)

// RegisterRoutes 注册全部路由
func RegisterRoutes(
	r *Router,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	portalHandler *handler.PortalHandler,
	chatHandler *handler.ChatHandler,
	filesHandler *handler.FilesHandler,
	quotationHandler *handler.QuotationHandler,
	troubleHandler *handler.TroubleHandler,
	kpiHandler *handler.KPIHandler,
	licenseHandler *handler.LicenseHandler,
	weatherHandler *handler.WeatherHandler,
	clothingHandler *handler.ClothingHandler,
	nlqHandler *handler.NLQHandler,
) {
	engine := r.Engine()

	// 系统端点
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/live", healthHandler.Live)

	// Prometheus 指标端点
	if r.cfg.Observability.Metrics.Enabled {
		engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// 認証
	engine.POST("/auth/login", authHandler.Login)

	// 表形式ファイルのプレビュー（移行前のパスを維持）
	engine.POST("/files/preview", filesHandler.Preview)

	api := engine.Group("/api")
	{
		// ポータル共通
		api.GET("/hello", portalHandler.Hello)
		api.GET("/me", authHandler.Me)
		api.GET("/scenario", portalHandler.Scenario)
		api.GET("/data/:file_name", portalHandler.DataFile)

		// SSE 会話アシスタント
		api.GET("/healthz", healthHandler.Healthz)
		api.POST("/session", chatHandler.CreateSession)
		api.POST("/upload", chatHandler.Upload)
		api.POST("/chat", chatHandler.Stream)
		api.POST("/chat-test", chatHandler.ChatTest)

		// テキスト抽出
		api.POST("/parse", filesHandler.Parse)

		// 見積 JSON エージェント
		api.GET("/tree", quotationHandler.Tree)
		api.POST("/hitei-dedupe", quotationHandler.HiteiDedupe)
		api.POST("/generate", quotationHandler.Generate)
		api.POST("/diff", quotationHandler.Diff)
		api.POST("/excel/render", quotationHandler.RenderExcel)

		// 障害事例検索・暗黙知
		trouble := api.Group("/trouble")
		{
			trouble.GET("/search", troubleHandler.Search)
			trouble.POST("/feedback", troubleHandler.Feedback)
			trouble.POST("/tacit", troubleHandler.TacitSubmit)
			trouble.GET("/tacit/list", troubleHandler.TacitList)
			trouble.POST("/tacit/approve", troubleHandler.TacitApprove)
			trouble.POST("/tacit/apply", troubleHandler.TacitApply)
			trouble.GET("/analytics", troubleHandler.Analytics)
		}

		// 生産 KPI 分析
		api.POST("/kpi/analyze", kpiHandler.Analyze)

		// OSS ライセンス審査
		api.POST("/license/summary", licenseHandler.Summary)
		api.POST("/license/judge", licenseHandler.Judge)

		// 出張支援
		api.POST("/weather/summary", weatherHandler.Summary)
		api.POST("/clothing/advice", clothingHandler.Advice)

		// Oracle 自然言語照会と診断
		api.POST("/oracle-nlq/query", nlqHandler.Query)
		api.GET("/oracle-diag/whoami", nlqHandler.Whoami)
		api.GET("/oracle-diag/tables", nlqHandler.Tables)
	}
}
