// Package nlq 自然言語質問を Oracle の単一ビューへの SELECT に変換して実行する
package nlq

import (
	"context"
	"strings"
	"time"

	"ops-portal-api/internal/infrastructure/llm"
	"ops-portal-api/internal/infrastructure/persistence/oracle"
	einoobs "ops-portal-api/internal/observability/eino"
	workflowprompt "ops-portal-api/internal/workflow/prompt"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/metrics"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

const (
	defaultLimit = 200
	maxLimit     = 1000

	whoamiSQL = "SELECT USER AS username FROM dual"

	accessibleTablesSQL = `SELECT owner, table_name
FROM all_tables
ORDER BY owner, table_name
FETCH FIRST 200 ROWS ONLY`
)

// QueryInput NLQ リクエスト
type QueryInput struct {
	Question string
	Limit    int
}

// QueryResult 実行した SQL と結果セット
type QueryResult struct {
	SQL     string           `json:"sql"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Service NLQ アプリケーションサービス
type Service struct {
	factory *llm.EinoFactory
	client  *oracle.Client
	catalog *Catalog
}

// NewService 创建 NLQ 服务
func NewService(factory *llm.EinoFactory, client *oracle.Client, catalog *Catalog) *Service {
	return &Service{
		factory: factory,
		client:  client,
		catalog: catalog,
	}
}

// Query 質問から SQL を生成し、ガードを通ったものだけを実行する
func (s *Service) Query(ctx context.Context, in QueryInput) (*QueryResult, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, errors.New(errors.CodeInvalidParam, "question is required")
	}
	if s == nil || s.client == nil {
		return nil, errors.New(errors.CodeServiceUnavailable, "oracle is not configured")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	start := time.Now()
	result, err := s.query(ctx, question, limit)
	metrics.NLQQueryDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		metrics.NLQQueryTotal.WithLabelValues("ok").Inc()
	case isRejected(err):
		metrics.NLQQueryTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.NLQQueryTotal.WithLabelValues("error").Inc()
	}
	return result, err
}

func (s *Service) query(ctx context.Context, question string, limit int) (*QueryResult, error) {
	schemaContext, err := s.catalog.SchemaContext(ctx)
	if err != nil {
		logger.Error(ctx, "failed to build schema context", err)
		return nil, errors.Wrap(err, errors.CodeOracleError, "Internal server error")
	}

	raw, err := s.generateSQL(ctx, question, schemaContext)
	if err != nil {
		return nil, err
	}

	proposed := sanitizeSQL(raw)
	if err := validateSQL(proposed); err != nil {
		logger.Warn(ctx, "nlq sql rejected", "reason", err.Error())
		return nil, err
	}
	if err := checkViewOnly(proposed, s.catalog.AllowedView()); err != nil {
		logger.Warn(ctx, "nlq view check failed", "reason", err.Error())
		return nil, err
	}

	execSQL := enforceLimit(proposed, limit)

	res, err := s.client.RunSelect(ctx, execSQL)
	if err != nil {
		// 生成 SQL はエラー応答に含めない
		logger.Error(ctx, "nlq query failed", err)
		return nil, errors.Wrap(err, errors.CodeOracleError, "Internal server error")
	}
	return &QueryResult{SQL: execSQL, Columns: res.Columns, Rows: res.Rows}, nil
}

func (s *Service) generateSQL(ctx context.Context, question, schemaContext string) (string, error) {
	provider := s.factory.ResolveProvider("")
	ctx = einoobs.WithFeatureProvider(ctx, "nlq_sqlgen", provider)

	chatModel, err := s.factory.Default(ctx)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeLLMCallFailed, "failed to init llm client")
	}

	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptNLQSQLGenV1)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to load prompt template")
	}
	msgs, err := tpl.Format(ctx, map[string]any{
		"schema_context": schemaContext,
		"allowed_view":   s.catalog.AllowedView(),
		"question":       question,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to format prompt")
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		logger.Error(ctx, "sql generation failed", err)
		return "", errors.Wrap(err, errors.CodeLLMCallFailed, "Internal server error")
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", errors.New(errors.CodeLLMCallFailed, "LLM returned empty content")
	}
	return outMsg.Content, nil
}

// Whoami 接続ユーザーを返す診断用クエリ
func (s *Service) Whoami(ctx context.Context) (map[string]any, error) {
	if s == nil || s.client == nil {
		return nil, errors.New(errors.CodeServiceUnavailable, "oracle is not configured")
	}
	res, err := s.client.RunSelect(ctx, whoamiSQL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOracleError, "Internal server error")
	}
	if len(res.Rows) == 0 {
		return nil, errors.New(errors.CodeOracleError, "empty whoami result")
	}
	return res.Rows[0], nil
}

// Tables アクセス可能な表の一覧。件数は固定で絞る。
func (s *Service) Tables(ctx context.Context) (*oracle.QueryResult, error) {
	if s == nil || s.client == nil {
		return nil, errors.New(errors.CodeServiceUnavailable, "oracle is not configured")
	}
	res, err := s.client.RunSelect(ctx, accessibleTablesSQL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOracleError, "Internal server error")
	}
	return res, nil
}

func isRejected(err error) bool {
	appErr, ok := err.(*errors.AppError)
	return ok && appErr.Code == errors.CodeSQLRejected
}
