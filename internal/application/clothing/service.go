package clothing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"ops-portal-api/internal/infrastructure/llm"
	einoobs "ops-portal-api/internal/observability/eino"
	workflowprompt "ops-portal-api/internal/workflow/prompt"
	"ops-portal-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

var (
	errServiceNotConfigured = errors.New("llm is not configured")
	errEmptyRefineOutput    = errors.New("llm returned empty content")
)

// AdviceInput 服装アドバイスの入力。Data は /weather/summary の data をそのまま渡せる。
type AdviceInput struct {
	PrefName string
	Data     Forecast
	UseAzure bool
}

// Service 服装アドバイスアプリケーションサービス
type Service struct {
	factory *llm.EinoFactory
}

// NewService 创建服装建议服务
func NewService(factory *llm.EinoFactory) *Service {
	return &Service{factory: factory}
}

// Advise 規則ベースで Markdown を組み立て、可能なら LLM で文面を整える。
// 整形に失敗しても規則ベースの本文をそのまま返すため、失敗はエラーにしない。
func (s *Service) Advise(ctx context.Context, in AdviceInput) string {
	prefName := strings.TrimSpace(in.PrefName)
	if prefName == "" {
		prefName = "選択地域"
	}

	base := ComposeMarkdown(prefName, in.Data)
	if !in.UseAzure {
		return base
	}

	refined, err := s.refine(ctx, prefName, base)
	if err != nil {
		logger.Warn(ctx, "clothing advice refine unavailable, using rule-based text", "error", err.Error())
		return base
	}
	return refined
}

func (s *Service) refine(ctx context.Context, prefName, markdown string) (string, error) {
	if s.factory == nil || !s.factory.Configured("") {
		return "", errServiceNotConfigured
	}

	ctx = einoobs.WithFeatureProvider(ctx, "clothing_advice", s.factory.ResolveProvider(""))

	chatModel, err := s.factory.Default(ctx)
	if err != nil {
		return "", llm.ClassifyError(err)
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptClothingAdviceV1)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]any{
		"prefecture": prefName,
		"markdown":   markdown,
	})
	if err != nil {
		return "", err
	}
	msgs, err := tpl.Format(ctx, map[string]any{"payload": string(payload)})
	if err != nil {
		return "", err
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return "", llm.ClassifyError(err)
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", errEmptyRefineOutput
	}
	return strings.TrimSpace(outMsg.Content), nil
}
