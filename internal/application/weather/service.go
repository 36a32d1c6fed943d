// Package weather 出張先の JMA 予報を取得し、日本語の要約付きで返す
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ops-portal-api/internal/infrastructure/jma"
	"ops-portal-api/internal/infrastructure/llm"
	einoobs "ops-portal-api/internal/observability/eino"
	workflowprompt "ops-portal-api/internal/workflow/prompt"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// SummaryResponse 予報抽出と要約をまとめたレスポンス
type SummaryResponse struct {
	PrefName       string   `json:"pref_name"`
	OfficeCode     string   `json:"office_code"`
	Data           *Extract `json:"data"`
	Summary        string   `json:"summary"`
	PopRows        []PopRow `json:"pop_rows"`
	MaxPopToday    *int     `json:"max_pop_today"`
	MaxPopTomorrow *int     `json:"max_pop_tomorrow"`
	IconToday      *string  `json:"icon_today"`
	IconTomorrow   *string  `json:"icon_tomorrow"`
}

// Service 天気要約アプリケーションサービス
type Service struct {
	factory *llm.EinoFactory
	client  *jma.Client
}

// NewService 创建天气服务
func NewService(factory *llm.EinoFactory, client *jma.Client) *Service {
	return &Service{
		factory: factory,
		client:  client,
	}
}

// Summarize 目的地から予報区を推定し、予報の抽出と要約を返す
func (s *Service) Summarize(ctx context.Context, destination string) (*SummaryResponse, error) {
	dest := strings.TrimSpace(destination)
	if dest == "" {
		return nil, errors.New(errors.CodeInvalidParam, "destination is required")
	}
	if s == nil || s.client == nil {
		return nil, errors.New(errors.CodeServiceUnavailable, "weather client is not configured")
	}

	offices, err := s.client.Offices(ctx)
	if err != nil {
		return nil, err
	}
	match := resolveOffice(dest, offices)
	if match == nil {
		return nil, errors.New(errors.CodeOfficeNotFound, "destination did not match any office")
	}

	entries, err := s.client.Forecast(ctx, match.Code)
	if err != nil {
		return nil, err
	}
	ex := ExtractForecast(entries)

	maxToday, maxTomorrow := MaxPops(ex)
	resp := &SummaryResponse{
		PrefName:       match.Name,
		OfficeCode:     match.Code,
		Data:           ex,
		Summary:        s.summarize(ctx, match.Name, ex),
		PopRows:        BuildPopRows(ex),
		MaxPopToday:    maxToday,
		MaxPopTomorrow: maxTomorrow,
	}
	if code := ex.Today.WeatherCode; code != nil {
		if u := s.client.IconURL(*code); u != "" {
			resp.IconToday = &u
		}
	}
	if code := ex.Tomorrow.WeatherCode; code != nil {
		if u := s.client.IconURL(*code); u != "" {
			resp.IconTomorrow = &u
		}
	}
	return resp, nil
}

// summarize LLM 要約を試み、使えないときは抽出値から決め打ちの文面を組む
func (s *Service) summarize(ctx context.Context, prefName string, ex *Extract) string {
	text, err := s.llmSummary(ctx, prefName, ex)
	if err != nil {
		logger.Warn(ctx, "weather llm summary unavailable, using fallback", "error", err.Error())
		return deterministicSummary(prefName, ex)
	}
	return text
}

func (s *Service) llmSummary(ctx context.Context, prefName string, ex *Extract) (string, error) {
	if s.factory == nil || !s.factory.Configured("") {
		return "", errors.New(errors.CodeServiceUnavailable, "llm is not configured")
	}

	ctx = einoobs.WithFeatureProvider(ctx, "weather_summary", s.factory.ResolveProvider(""))

	chatModel, err := s.factory.Default(ctx)
	if err != nil {
		return "", llm.ClassifyError(err)
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptWeatherSummaryV1)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to load prompt template")
	}

	payload, err := json.Marshal(map[string]any{
		"prefecture":  prefName,
		"today":       ex.Today,
		"tomorrow":    ex.Tomorrow,
		"timeDefines": ex.TimeDefines,
		"issued_date": time.Now().Format("2006-01-02"),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to encode forecast payload")
	}
	msgs, err := tpl.Format(ctx, map[string]any{"payload": string(payload)})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "failed to format prompt")
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return "", llm.ClassifyError(err)
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", errors.New(errors.CodeLLMCallFailed, "LLM returned empty content")
	}
	return strings.TrimSpace(outMsg.Content), nil
}

func deterministicSummary(prefName string, ex *Extract) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sの天気概況です。\n", prefName)
	b.WriteString("【今日】" + dayLine(ex.Today) + "\n")
	b.WriteString("【明日】" + dayLine(ex.Tomorrow))
	return b.String()
}

func dayLine(d DaySummary) string {
	w := "情報なし"
	if d.Weather != nil && strings.TrimSpace(*d.Weather) != "" {
		w = *d.Weather
	}
	if p := maxPop(d.Pops); p != nil {
		return fmt.Sprintf("%s（降水確率 最大%d%%）", w, *p)
	}
	return w
}
