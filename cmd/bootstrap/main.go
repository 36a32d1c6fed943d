package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/infrastructure/persistence/postgres"
	"ops-portal-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（PostgreSQL + 可选 Milvus）
	deps, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 同步表结构
	fmt.Println("Running schema migration...")
	err = deps.PgClient.AutoMigrate(
		&entity.Employee{},
		&entity.TroubleCase{},
		&entity.TacitNote{},
		&entity.SearchFeedback{},
		&entity.LLMUsageEvent{},
	)
	if err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 4. 管理者アカウント
	adminID := os.Getenv("BOOTSTRAP_ADMIN_ID")
	if adminID == "" {
		adminID = "admin"
	}
	adminPassword := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123" // 生产环境请务必通过环境变量设置
	}
	ensureEmployee(ctx, deps.EmployeeRepo, &entity.Employee{
		ID:         adminID,
		Name:       "System Admin",
		Department: "情報システム部",
		Role:       entity.EmployeeRoleAdmin,
	}, adminPassword)

	// 5. デモ社員（開発環境のみ）
	if cfg.App.Env != "production" {
		ensureEmployee(ctx, deps.EmployeeRepo, &entity.Employee{
			ID:   "Deng1",
			Name: "革新研データエンジニアリング開発部-Giiji",
			Role: entity.EmployeeRoleMember,
		}, "dengdeng123!!")
	}

	// 6. Milvus 事例コレクション
	if deps.VectorRepo != nil {
		fmt.Println("Ensuring Milvus collection...")
		if err := deps.VectorRepo.EnsureCollection(ctx, cfg.Embedding.Dimension); err != nil {
			log.Fatalf("failed to ensure milvus collection: %v", err)
		}
		if err := deps.VectorRepo.CreateIndex(ctx); err != nil {
			log.Fatalf("failed to create milvus index: %v", err)
		}
		fmt.Println("Milvus collection ready.")
	} else {
		fmt.Println("Milvus not available, skipping collection setup.")
	}

	fmt.Println("Bootstrap completed successfully.")
}

func ensureEmployee(ctx context.Context, repo *postgres.EmployeeRepository, emp *entity.Employee, password string) {
	existing, err := repo.GetByID(ctx, emp.ID)
	if err != nil {
		log.Fatalf("failed to check employee %s: %v", emp.ID, err)
	}
	if existing != nil {
		fmt.Printf("Employee %s already exists.\n", emp.ID)
		return
	}

	fmt.Printf("Creating employee: %s...\n", emp.ID)
	if err := emp.SetPassword(password); err != nil {
		log.Fatalf("failed to hash password for %s: %v", emp.ID, err)
	}
	if err := repo.Create(ctx, emp); err != nil {
		log.Fatalf("failed to create employee %s: %v", emp.ID, err)
	}
	fmt.Printf("Employee %s created successfully.\n", emp.ID)
}
