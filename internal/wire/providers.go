// Package wire 提供依赖注入配置
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/google/wire"

	"ops-portal-api/internal/application/auth"
	"ops-portal-api/internal/application/chat"
	"ops-portal-api/internal/application/clothing"
	"ops-portal-api/internal/application/jsonagent"
	"ops-portal-api/internal/application/kpi"
	"ops-portal-api/internal/application/license"
	"ops-portal-api/internal/application/nlq"
	"ops-portal-api/internal/application/tacit"
	"ops-portal-api/internal/application/troublesearch"
	"ops-portal-api/internal/application/usage"
	"ops-portal-api/internal/application/weather"
	"ops-portal-api/internal/config"
	"ops-portal-api/internal/domain/repository"
	infraembedding "ops-portal-api/internal/infrastructure/embedding"
	"ops-portal-api/internal/infrastructure/github"
	"ops-portal-api/internal/infrastructure/jma"
	"ops-portal-api/internal/infrastructure/llm"
	"ops-portal-api/internal/infrastructure/messaging"
	"ops-portal-api/internal/infrastructure/persistence/milvus"
	"ops-portal-api/internal/infrastructure/persistence/oracle"
	"ops-portal-api/internal/infrastructure/persistence/postgres"
	"ops-portal-api/internal/infrastructure/persistence/redis"
	"ops-portal-api/internal/interfaces/http/handler"
	"ops-portal-api/internal/interfaces/http/router"
	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/utils"
)

// App 聚合 HTTP 路由与随进程生命周期运行的后台组件
type App struct {
	Router   *router.Router
	Recorder *usage.Recorder
}

// Bootstrap 初始化任务依赖容器（表結構同期・初期データ投入用）
type Bootstrap struct {
	PgClient     *postgres.Client
	EmployeeRepo *postgres.EmployeeRepository
	MilvusClient *milvus.Client
	VectorRepo   *milvus.Repository
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewEmployeeRepository,
	postgres.NewTroubleCaseRepository,
	postgres.NewTacitNoteRepository,
	postgres.NewSearchFeedbackRepository,
	postgres.NewLLMUsageEventRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.EmployeeRepository), new(*postgres.EmployeeRepository)),
	wire.Bind(new(repository.TroubleCaseRepository), new(*postgres.TroubleCaseRepository)),
	wire.Bind(new(repository.TacitNoteRepository), new(*postgres.TacitNoteRepository)),
	wire.Bind(new(repository.SearchFeedbackRepository), new(*postgres.SearchFeedbackRepository)),
	wire.Bind(new(repository.LLMUsageEventRepository), new(*postgres.LLMUsageEventRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewSessionStore,
	wire.Bind(new(repository.ChatSessionStore), new(*redis.SessionStore)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
)

// MilvusAppSet API 服务用可选 Milvus（不可达时降级为纯 TF-IDF 检索）
var MilvusAppSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideSearchVectorIndex,
)

// MilvusBootstrapSet bootstrap 用可选 Milvus
var MilvusBootstrapSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideMilvusRepositoryOptional,
)

// EmbeddingSet 可选 Embedder（不可用时禁用向量检索）
var EmbeddingSet = wire.NewSet(
	ProvideEmbedderOptional,
)

// OracleSet 可选 Oracle 客户端（自然言語照会用）
var OracleSet = wire.NewSet(
	ProvideOracleClientOptional,
)

// ServiceSet 应用服务提供者集合
var ServiceSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideJWTManager,
	ProvideAuthService,
	ProvideChatConfig,
	chat.NewService,
	ProvideFilesConfig,
	jsonagent.NewStore,
	jsonagent.NewService,
	troublesearch.NewEngine,
	troublesearch.NewFeedbackService,
	tacit.NewService,
	wire.Bind(new(tacit.CorpusInvalidator), new(*troublesearch.Engine)),
	kpi.NewService,
	ProvideLicenseFetcher,
	wire.Bind(new(license.Fetcher), new(*github.LicenseFetcher)),
	license.NewService,
	ProvideWeatherConfig,
	jma.NewClient,
	weather.NewService,
	clothing.NewService,
	ProvideNLQCatalog,
	nlq.NewService,
	ProvideUsageRecorder,
)

// HandlerSet HTTP 处理器提供者集合
var HandlerSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewAuthHandler,
	handler.NewPortalHandler,
	handler.NewChatHandler,
	handler.NewFilesHandler,
	handler.NewQuotationHandler,
	handler.NewTroubleHandler,
	handler.NewKPIHandler,
	handler.NewLicenseHandler,
	handler.NewWeatherHandler,
	handler.NewClothingHandler,
	handler.NewNLQHandler,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideMilvusClientOptional 提供可选 Milvus 客户端。
// 接続失敗時は nil を返し、向量検索のみ無効化して起動を継続する。
func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Database.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, vector search disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusRepositoryOptional 提供可选 Milvus 仓储
func ProvideMilvusRepositoryOptional(client *milvus.Client) *milvus.Repository {
	if client == nil {
		return nil
	}
	return milvus.NewRepository(client)
}

// ProvideSearchVectorIndex 提供事例向量索引（Milvus 不可用时为 nil）
func ProvideSearchVectorIndex(client *milvus.Client, cfg *config.Config) troublesearch.VectorIndex {
	if client == nil {
		return nil
	}
	return milvus.NewSearchVectorIndex(milvus.NewRepository(client), cfg.Embedding.Dimension)
}

// ProvideEmbedderOptional 提供可选 Embedder。
// 設定不備などで初期化できない場合は nil を返す。
func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	embedder, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Warn(ctx, "embedding not available, vector search disabled", "error", err.Error())
		return nil, nil
	}
	return embedder, nil
}

// ProvideOracleClientOptional 提供可选 Oracle 客户端。
// 無効設定もしくは接続失敗時は nil を返し、NLQ 系 API のみ無効化する。
func ProvideOracleClientOptional(ctx context.Context, cfg *config.Config) (*oracle.Client, func(), error) {
	if !cfg.Oracle.Enabled {
		return nil, func() {}, nil
	}
	client, err := oracle.NewClient(&cfg.Oracle)
	if err != nil {
		logger.Warn(ctx, "oracle not available, nlq disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideJWTManager 提供 JWT 管理器
func ProvideJWTManager(cfg *config.Config) *utils.JWTManager {
	return utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
}

// ProvideAuthService 提供认证服务
func ProvideAuthService(employees repository.EmployeeRepository, jwt *utils.JWTManager, cfg *config.Config) *auth.Service {
	return auth.NewService(employees, jwt, cfg.Security.JWT.Expiration)
}

// ProvideChatConfig 提供会話配置
func ProvideChatConfig(cfg *config.Config) *config.ChatConfig {
	return &cfg.Chat
}

// ProvideFilesConfig 提供文件处理配置
func ProvideFilesConfig(cfg *config.Config) *config.FilesConfig {
	return &cfg.Files
}

// ProvideWeatherConfig 提供天気予報配置
func ProvideWeatherConfig(cfg *config.Config) *config.WeatherConfig {
	return &cfg.Weather
}

// ProvideLicenseFetcher 提供ライセンステキスト取得クライアント
func ProvideLicenseFetcher(cfg *config.Config) *github.LicenseFetcher {
	return github.NewLicenseFetcher(&cfg.GitHub)
}

// ProvideNLQCatalog 提供 Oracle 列カタログ
func ProvideNLQCatalog(client *oracle.Client, cfg *config.Config) *nlq.Catalog {
	return nlq.NewCatalog(client, cfg.Oracle.AllowedView)
}

// ProvideUsageRecorder 提供 LLM 使用事件异步记录器
func ProvideUsageRecorder(repo repository.LLMUsageEventRepository) (*usage.Recorder, func()) {
	recorder := usage.NewRecorder(repo, 0)
	return recorder, recorder.Close
}

// ProvideRouter 组装路由器并注册全部路由
func ProvideRouter(
	cfg *config.Config,
	authSvc *auth.Service,
	redisClient *redis.Client,
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
) *router.Router {
	r := router.New(cfg, authSvc, redisClient)
	router.RegisterRoutes(r,
		healthHandler,
		authHandler,
		portalHandler,
		chatHandler,
		filesHandler,
		quotationHandler,
		troubleHandler,
		kpiHandler,
		licenseHandler,
		weatherHandler,
		clothingHandler,
		nlqHandler,
	)
	return r
}
