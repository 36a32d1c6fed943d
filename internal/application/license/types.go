package license

import (
	"context"
	"encoding/json"
	"strings"

	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/utils"
)

// Summary LLM が生成するライセンス要約。enum は閉集合で、外れ値は unknown に落とす。
type Summary struct {
	CommercialUse  string   `json:"commercial_use"`
	Redistribution string   `json:"redistribution"`
	Modification   string   `json:"modification"`
	CreditRequired bool     `json:"credit_required"`
	Copyleft       bool     `json:"copyleft"`
	LicenseCost    string   `json:"license_cost"`
	KeyConditions  []string `json:"key_conditions"`
	RiskPoints     []string `json:"risk_points"`
}

// SummaryResponse raw_output は LLM の生出力（確認用）
type SummaryResponse struct {
	Summary   *Summary `json:"summary"`
	RawOutput string   `json:"raw_output"`
}

// JudgeResult 商用利用可否の判定結果
type JudgeResult struct {
	IsAllowed  bool     `json:"is_allowed"`
	Level      string   `json:"level"`
	Reasons    []string `json:"reasons"`
	Conditions []string `json:"conditions"`
}

type JudgeResponse struct {
	Result    *JudgeResult `json:"result"`
	RawOutput string       `json:"raw_output"`
}

var (
	permissionValues = map[string]bool{"allowed": true, "restricted": true, "prohibited": true, "unknown": true}
	costValues       = map[string]bool{"free": true, "paid": true, "mixed": true, "unknown": true}
	levelValues      = map[string]bool{"ok": true, "conditional": true, "ng": true, "unknown": true}
	usageTypes       = map[string]bool{"internal": true, "product": true, "saas": true, "redistribution": true}
)

func normalizeEnum(v string, valid map[string]bool) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if valid[v] {
		return v
	}
	return "unknown"
}

// parseSummary LLM 出力を要約にする。JSON として読めない場合は unknown 埋めで返し、
// API 自体は落とさない。
func parseSummary(ctx context.Context, raw string) *Summary {
	var s Summary
	if err := json.Unmarshal([]byte(utils.ExtractJSONObject(raw)), &s); err != nil {
		logger.Warn(ctx, "license summary json parse failed", "error", err.Error())
		return &Summary{
			CommercialUse:  "unknown",
			Redistribution: "unknown",
			Modification:   "unknown",
			LicenseCost:    "unknown",
			KeyConditions:  []string{},
			RiskPoints:     []string{"LLM の出力が JSON として解析できませんでした"},
		}
	}

	s.CommercialUse = normalizeEnum(s.CommercialUse, permissionValues)
	s.Redistribution = normalizeEnum(s.Redistribution, permissionValues)
	s.Modification = normalizeEnum(s.Modification, permissionValues)
	s.LicenseCost = normalizeEnum(s.LicenseCost, costValues)
	if s.KeyConditions == nil {
		s.KeyConditions = []string{}
	}
	if s.RiskPoints == nil {
		s.RiskPoints = []string{}
	}
	return &s
}

func parseJudge(ctx context.Context, raw string) *JudgeResult {
	var r JudgeResult
	if err := json.Unmarshal([]byte(utils.ExtractJSONObject(raw)), &r); err != nil {
		logger.Warn(ctx, "license judge json parse failed", "error", err.Error())
		return &JudgeResult{
			IsAllowed:  false,
			Level:      "unknown",
			Reasons:    []string{"LLM の JSON 出力解析に失敗しました"},
			Conditions: []string{},
		}
	}

	r.Level = normalizeEnum(r.Level, levelValues)
	if r.Reasons == nil {
		r.Reasons = []string{}
	}
	if r.Conditions == nil {
		r.Conditions = []string{}
	}
	return &r
}
