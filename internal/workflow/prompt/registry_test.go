package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatTemplate_AllIDsResolve(t *testing.T) {
	r := NewRegistry()
	for _, id := range []PromptID{
		PromptQuotationGenV1,
		PromptNLQSQLGenV1,
		PromptKPIAnalysisV1,
		PromptClothingAdviceV1,
		PromptWeatherSummaryV1,
		PromptLicenseSummaryV1,
		PromptLicenseJudgeV1,
	} {
		tpl, err := r.ChatTemplate(id)
		require.NoError(t, err, "prompt id %s", id)
		require.NotNil(t, tpl)
	}
}

func TestChatTemplate_UnknownID(t *testing.T) {
	r := NewRegistry()
	_, err := r.ChatTemplate(PromptID("no_such_prompt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown prompt id")
}

func TestChatTemplate_CachesInstance(t *testing.T) {
	r := NewRegistry()
	first, err := r.ChatTemplate(PromptKPIAnalysisV1)
	require.NoError(t, err)
	second, err := r.ChatTemplate(PromptKPIAnalysisV1)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestQuotationTemplate_Format(t *testing.T) {
	r := NewRegistry()
	tpl, err := r.ChatTemplate(PromptQuotationGenV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"po_text":           "発注番号: PO-123",
		"hitei_text":        "判定: 非該当",
		"instruction_block": "\n### 修正指示\n数量を 2 に変更\n",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "JSONのみ")

	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "発注番号: PO-123")
	assert.Contains(t, msgs[1].Content, "判定: 非該当")
	assert.Contains(t, msgs[1].Content, "### 修正指示")
}

func TestLicenseSummaryTemplate_KeepsJSONBraces(t *testing.T) {
	r := NewRegistry()
	tpl, err := r.ChatTemplate(PromptLicenseSummaryV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"software_name": "ExampleLib",
		"license_text":  "MIT License",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// pyfmt の {{ }} が描画後に素の波括弧へ戻ること
	assert.Contains(t, msgs[0].Content, `"commercial_use"`)
	assert.True(t, strings.Contains(msgs[0].Content, "{\n"), "JSON example should open with a brace")
	assert.NotContains(t, msgs[0].Content, "{{")
	assert.Contains(t, msgs[1].Content, "ソフトウェア名: ExampleLib")
}

func TestNLQTemplate_Format(t *testing.T) {
	r := NewRegistry()
	tpl, err := r.ChatTemplate(PromptNLQSQLGenV1)
	require.NoError(t, err)

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"schema_context": "Allowed view: USK_DBA.V_WORK\nColumns:\n- ITEM (VARCHAR2)",
		"allowed_view":   "USK_DBA.V_WORK",
		"question":       "昨日の稼働件数は?",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Contains(t, msgs[0].Content, "FROM USK_DBA.V_WORK")
	assert.Contains(t, msgs[0].Content, "Do NOT use JOIN")
	assert.Equal(t, "昨日の稼働件数は?", msgs[1].Content)
}
