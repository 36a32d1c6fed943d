// Package jsonagent 発注書と該非判定書から見積 JSON を起こすエージェント
package jsonagent

import (
	"context"
	"encoding/json"
	"strings"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"ops-portal-api/internal/application/docparse"
	"ops-portal-api/internal/config"
	"ops-portal-api/internal/infrastructure/llm"
	einoobs "ops-portal-api/internal/observability/eino"
	workflowprompt "ops-portal-api/internal/workflow/prompt"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/utils"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// jsonModeTemperature 利用デプロイメントが temperature=1 固定のため変更しない
const jsonModeTemperature = float32(1.0)

// Service 見積 JSON エージェントのアプリケーションサービス
type Service struct {
	factory      *llm.EinoFactory
	store        *Store
	templatePath string
}

// NewService 创建报价 JSON 代理服务
func NewService(factory *llm.EinoFactory, store *Store, cfg *config.FilesConfig) *Service {
	return &Service{
		factory:      factory,
		store:        store,
		templatePath: cfg.ExcelTemplate,
	}
}

// Tree ディレクトリ構成メモの内容
func (s *Service) Tree() string {
	return s.store.Tree()
}

// Parse アップロードされたファイルから全文テキストを抽出する
func (s *Service) Parse(filename string, raw []byte) (string, error) {
	return docparse.ExtractText(filename, raw)
}

// Dedupe 該非判定書を抽出して保存する。同一内容なら保存済みテキストを再利用する。
func (s *Service) Dedupe(filename string, raw []byte) (string, string, error) {
	text, err := docparse.ExtractText(filename, raw)
	if err != nil {
		return "", "", err
	}
	return s.store.DedupeAndSave(text)
}

// GenerateInput 見積 JSON 生成の入力
type GenerateInput struct {
	POText      string
	HiteiText   string
	Instruction string
}

// Generate 抽出テキストから見積 JSON ドラフトを生成する
func (s *Service) Generate(ctx context.Context, in GenerateInput) (map[string]any, error) {
	ctx = einoobs.WithFeatureProvider(ctx, "quotation_gen", s.factory.ResolveProvider(""))

	chatModel, err := s.factory.Default(ctx)
	if err != nil {
		return nil, llm.ClassifyError(err)
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptQuotationGenV1)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalError, "failed to load prompt template")
	}
	msgs, err := tpl.Format(ctx, map[string]any{
		"po_text":           in.POText,
		"hitei_text":        in.HiteiText,
		"instruction_block": instructionBlock(in.Instruction),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalError, "failed to format prompt")
	}

	outMsg, err := chatModel.Generate(ctx, msgs, jsonModeOptions()...)
	if err != nil && llm.IsResponseFormatUnsupported(err) {
		logger.Warn(ctx, "llm json_object not supported, fallback to prompt-only",
			"feature", "quotation_gen",
			"error", err.Error(),
		)
		outMsg, err = chatModel.Generate(ctx, msgs, model.WithTemperature(jsonModeTemperature))
	}
	if err != nil {
		logger.Error(ctx, "quotation llm call failed", err)
		return nil, llm.ClassifyError(err)
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return nil, errors.New(errors.CodeLLMCallFailed, "LLM returned empty content")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(utils.ExtractJSONObject(outMsg.Content)), &data); err != nil {
		logger.Error(ctx, "quotation json parse failed", err)
		return nil, errors.New(errors.CodeLLMCallFailed, "LLM returned invalid JSON")
	}
	return data, nil
}

// Diff 編集中 JSON とプレビュー JSON の unified diff
func (s *Service) Diff(current, preview map[string]any) (string, error) {
	return UnifiedDiff(current, preview)
}

// Render 見積 JSON をテンプレートに流し込んだ xlsx を返す
func (s *Service) Render(data map[string]any) ([]byte, error) {
	return RenderExcel(data, s.templatePath)
}

// instructionBlock 修正指示があるときだけプロンプトに差し込むブロック
func instructionBlock(instruction string) string {
	t := strings.TrimSpace(instruction)
	if t == "" {
		return ""
	}
	return "\n### 修正指示\n" + t + "\n"
}

func jsonModeOptions() []model.Option {
	return []model.Option{
		model.WithTemperature(jsonModeTemperature),
		openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}),
	}
}
