//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"ops-portal-api/internal/config"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		EmbeddingSet,
		MilvusAppSet,
		OracleSet,
		ServiceSet,
		HandlerSet,
		ProvideRouter,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeBootstrap 初始化 bootstrap 依赖（PostgreSQL + 可选 Milvus）
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, func(), error) {
	wire.Build(
		PostgresSet,
		MilvusBootstrapSet,
		wire.Struct(new(Bootstrap), "*"),
	)
	return nil, nil, nil
}
