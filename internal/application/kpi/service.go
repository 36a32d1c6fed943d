// Package kpi 製造 KPI の CSV を集計し、直近との差分と要因説明を返す
package kpi

import (
	"context"
	"strings"

	"ops-portal-api/internal/infrastructure/llm"
	einoobs "ops-portal-api/internal/observability/eino"
	workflowprompt "ops-portal-api/internal/workflow/prompt"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// reasoningSkipped LLM 未設定時の固定文。分析結果自体は返す。
const reasoningSkipped = "Azure OpenAI の設定がないため、自動要因説明はスキップされました。"

// Analysis 分析レスポンス
type Analysis struct {
	KPIs      *Summary `json:"kpis"`
	Chart     *Chart   `json:"chart"`
	Reasoning string   `json:"reasoning"`
}

// Service KPI アプリケーションサービス
type Service struct {
	factory *llm.EinoFactory
}

// NewService 创建 KPI 分析服务
func NewService(factory *llm.EinoFactory) *Service {
	return &Service{factory: factory}
}

// Analyze CSV を検証し、KPI 差分・グラフ系列・要因説明を組み立てる
func (s *Service) Analyze(ctx context.Context, raw []byte) (*Analysis, error) {
	ds, err := parseDataset(raw)
	if err != nil {
		return nil, err
	}

	summary := ds.summary()
	reasoning, err := s.reason(ctx, formatSummaryText(summary))
	if err != nil {
		return nil, err
	}

	return &Analysis{
		KPIs:      summary,
		Chart:     ds.chart(),
		Reasoning: reasoning,
	}, nil
}

func (s *Service) reason(ctx context.Context, summaryText string) (string, error) {
	if s.factory == nil || !s.factory.Configured("") {
		return reasoningSkipped, nil
	}

	ctx = einoobs.WithFeatureProvider(ctx, "kpi_analysis", s.factory.ResolveProvider(""))

	chatModel, err := s.factory.Default(ctx)
	if err != nil {
		return "", llm.ClassifyError(err)
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptKPIAnalysisV1)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to load prompt template")
	}
	msgs, err := tpl.Format(ctx, map[string]any{"kpi_summary": summaryText})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to format prompt")
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		logger.Error(ctx, "kpi reasoning failed", err)
		return "", llm.ClassifyError(err)
	}
	if outMsg == nil {
		return "", nil
	}
	return strings.TrimSpace(outMsg.Content), nil
}
