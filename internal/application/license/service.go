// Package license OSS ライセンスの要約と商用利用可否判定
package license

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"ops-portal-api/internal/infrastructure/llm"
	einoobs "ops-portal-api/internal/observability/eino"
	workflowprompt "ops-portal-api/internal/workflow/prompt"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// jsonModeTemperature 利用デプロイメントが temperature=1 固定のため変更しない
const jsonModeTemperature = float32(1.0)

// Fetcher ソフトウェア名からライセンステキストを引く
type Fetcher interface {
	Fetch(ctx context.Context, softwareName string) (string, error)
}

// Service ライセンス審査アプリケーションサービス
type Service struct {
	factory *llm.EinoFactory
	fetcher Fetcher
}

// NewService 创建 license 服务
func NewService(factory *llm.EinoFactory, fetcher Fetcher) *Service {
	return &Service{
		factory: factory,
		fetcher: fetcher,
	}
}

// SummarizeInput license_text が空のときは software_name から取得を試みる
type SummarizeInput struct {
	SoftwareName string
	LicenseText  string
}

// Summarize ライセンス本文から商用利用に関係する要点を構造化する
func (s *Service) Summarize(ctx context.Context, in SummarizeInput) (*SummaryResponse, error) {
	text := strings.TrimSpace(in.LicenseText)
	if text == "" {
		if strings.TrimSpace(in.SoftwareName) == "" {
			return nil, errors.New(errors.CodeInvalidParam,
				"ライセンステキストが空です。ソフトウェア名を指定するか、本文を貼り付けてください。")
		}
		if s.fetcher == nil {
			return nil, errors.New(errors.CodeServiceUnavailable, "license fetcher is not configured")
		}
		fetched, err := s.fetcher.Fetch(ctx, in.SoftwareName)
		if err != nil {
			return nil, err
		}
		text = fetched
	}

	raw, err := s.generateJSON(ctx, "license_summary", workflowprompt.PromptLicenseSummaryV1, map[string]any{
		"software_name": strings.TrimSpace(in.SoftwareName),
		"license_text":  text,
	})
	if err != nil {
		return nil, err
	}
	return &SummaryResponse{Summary: parseSummary(ctx, raw), RawOutput: raw}, nil
}

// JudgeInput 要約と利用形態から判定を依頼する
type JudgeInput struct {
	SoftwareName string
	UsageType    string
	Summary      *Summary
}

// Judge ライセンス要約と利用形態から商用利用可否を判定する。
// 最終的な法的判断は人間が行う前提のフラグ付けにとどめる。
func (s *Service) Judge(ctx context.Context, in JudgeInput) (*JudgeResponse, error) {
	usage := strings.ToLower(strings.TrimSpace(in.UsageType))
	if !usageTypes[usage] {
		return nil, errors.New(errors.CodeInvalidParam,
			fmt.Sprintf("usage_type は internal / product / saas / redistribution のいずれかを指定してください: %q", in.UsageType))
	}
	if in.Summary == nil {
		return nil, errors.New(errors.CodeInvalidParam, "license_summary is required")
	}

	summaryJSON, err := json.MarshalIndent(in.Summary, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalError, "failed to encode license summary")
	}

	raw, err := s.generateJSON(ctx, "license_judge", workflowprompt.PromptLicenseJudgeV1, map[string]any{
		"software_name": strings.TrimSpace(in.SoftwareName),
		"usage_type":    usage,
		"summary_json":  string(summaryJSON),
	})
	if err != nil {
		return nil, err
	}
	return &JudgeResponse{Result: parseJudge(ctx, raw), RawOutput: raw}, nil
}

func (s *Service) generateJSON(ctx context.Context, feature string, id workflowprompt.PromptID, vars map[string]any) (string, error) {
	ctx = einoobs.WithFeatureProvider(ctx, feature, s.factory.ResolveProvider(""))

	chatModel, err := s.factory.Default(ctx)
	if err != nil {
		return "", llm.ClassifyError(err)
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to load prompt template")
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to format prompt")
	}

	outMsg, err := chatModel.Generate(ctx, msgs, jsonModeOptions()...)
	if err != nil && llm.IsResponseFormatUnsupported(err) {
		logger.Warn(ctx, "llm json_object not supported, fallback to prompt-only",
			"feature", feature,
			"error", err.Error(),
		)
		outMsg, err = chatModel.Generate(ctx, msgs, model.WithTemperature(jsonModeTemperature))
	}
	if err != nil {
		logger.Error(ctx, "license llm call failed", err, "feature", feature)
		return "", llm.ClassifyError(err)
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", errors.New(errors.CodeLLMCallFailed, "LLM returned empty content")
	}
	return outMsg.Content, nil
}

func jsonModeOptions() []model.Option {
	return []model.Option{
		model.WithTemperature(jsonModeTemperature),
		openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}),
	}
}
