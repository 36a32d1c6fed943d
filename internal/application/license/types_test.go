package license

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("strict json", func(t *testing.T) {
		s := parseSummary(ctx, `{
			"commercial_use": "allowed",
			"redistribution": "restricted",
			"modification": "allowed",
			"credit_required": true,
			"copyleft": false,
			"license_cost": "free",
			"key_conditions": ["著作権表示を保持すること"],
			"risk_points": []
		}`)
		assert.Equal(t, "allowed", s.CommercialUse)
		assert.Equal(t, "restricted", s.Redistribution)
		assert.True(t, s.CreditRequired)
		assert.Equal(t, "free", s.LicenseCost)
		assert.Equal(t, []string{"著作権表示を保持すること"}, s.KeyConditions)
		assert.Equal(t, []string{}, s.RiskPoints)
	})

	t.Run("fenced json is salvaged", func(t *testing.T) {
		s := parseSummary(ctx, "```json\n{\"commercial_use\": \"prohibited\", \"license_cost\": \"paid\"}\n```")
		assert.Equal(t, "prohibited", s.CommercialUse)
		assert.Equal(t, "paid", s.LicenseCost)
	})

	t.Run("off-enum values degrade to unknown", func(t *testing.T) {
		s := parseSummary(ctx, `{"commercial_use": "maybe", "redistribution": "Allowed", "license_cost": "cheap"}`)
		assert.Equal(t, "unknown", s.CommercialUse)
		assert.Equal(t, "allowed", s.Redistribution)
		assert.Equal(t, "unknown", s.LicenseCost)
		assert.Equal(t, "unknown", s.Modification)
	})

	t.Run("unparseable output falls back", func(t *testing.T) {
		s := parseSummary(ctx, "このライセンスは商用利用可能です。")
		require.NotNil(t, s)
		assert.Equal(t, "unknown", s.CommercialUse)
		assert.Equal(t, "unknown", s.Redistribution)
		assert.Equal(t, "unknown", s.Modification)
		assert.False(t, s.CreditRequired)
		assert.False(t, s.Copyleft)
		assert.Equal(t, []string{}, s.KeyConditions)
		assert.Equal(t, []string{"LLM の出力が JSON として解析できませんでした"}, s.RiskPoints)
	})
}

func TestParseJudge(t *testing.T) {
	ctx := context.Background()

	t.Run("strict json with extra field", func(t *testing.T) {
		r := parseJudge(ctx, `{
			"is_allowed": true,
			"level": "conditional",
			"reasons": ["商用利用は可能だが帰属表示が必要"],
			"conditions": ["NOTICE の同梱"],
			"url": "https://example.com/license"
		}`)
		assert.True(t, r.IsAllowed)
		assert.Equal(t, "conditional", r.Level)
		assert.Len(t, r.Reasons, 1)
		assert.Equal(t, []string{"NOTICE の同梱"}, r.Conditions)
	})

	t.Run("off-enum level degrades to unknown", func(t *testing.T) {
		r := parseJudge(ctx, `{"is_allowed": false, "level": "danger"}`)
		assert.Equal(t, "unknown", r.Level)
		assert.Equal(t, []string{}, r.Reasons)
	})

	t.Run("unparseable output falls back", func(t *testing.T) {
		r := parseJudge(ctx, "判定できません")
		assert.False(t, r.IsAllowed)
		assert.Equal(t, "unknown", r.Level)
		assert.Equal(t, []string{"LLM の JSON 出力解析に失敗しました"}, r.Reasons)
		assert.Equal(t, []string{}, r.Conditions)
	})
}
