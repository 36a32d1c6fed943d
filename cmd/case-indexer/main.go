// Package main 事例インデクサー入口（case-indexer）
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ops-portal-api/internal/application/troublesearch"
	"ops-portal-api/internal/config"
	infraembedding "ops-portal-api/internal/infrastructure/embedding"
	"ops-portal-api/internal/infrastructure/messaging"
	"ops-portal-api/internal/infrastructure/persistence/milvus"
	"ops-portal-api/internal/infrastructure/persistence/postgres"
	"ops-portal-api/internal/infrastructure/persistence/redis"
	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/tracer"
)

func main() {
	csvPath := flag.String("csv", "", "import trouble cases from csv and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "case-indexer",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	milvusClient, err := milvus.NewClient(ctx, &cfg.Database.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to init milvus", err)
	}
	defer func() { _ = milvusClient.Close() }()

	embedder, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Fatal(ctx, "failed to init embedder", err)
	}

	caseRepo := postgres.NewTroubleCaseRepository(pgClient)
	vectorIndex := milvus.NewSearchVectorIndex(milvus.NewRepository(milvusClient), cfg.Embedding.Dimension)
	indexer := troublesearch.NewIndexer(caseRepo, vectorIndex, embedder)

	// CSV 一括取込モード
	if *csvPath != "" {
		f, err := os.Open(*csvPath)
		if err != nil {
			logger.Fatal(ctx, "failed to open csv", err)
		}
		defer f.Close()

		result, err := indexer.ImportCSV(ctx, f)
		if err != nil {
			logger.Fatal(ctx, "csv import failed", err)
		}
		fmt.Printf("Imported %d/%d cases (%d skipped).\n", result.Imported, result.Total, result.Skipped)
		return
	}

	// 再インデックスストリームの消費モード
	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamReindex,
		Group:        messaging.ConsumerGroupIndexer,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
		RetryLimit:   cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})
	consumer.RegisterHandler("case_reindex", indexer.HandleReindexMessage)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	log := logger.FromContext(ctx)
	log.Info("case-indexer started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("case-indexer shutting down")
	consumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "indexer"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
