package jsonagent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/infrastructure/llm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.FilesConfig{
		DataDir:       t.TempDir(),
		HiteiSubdir:   "hitei_files",
		ExcelTemplate: "templates/quotation.xlsx",
	}
	store, err := NewStore(cfg)
	require.NoError(t, err)

	factory := llm.NewEinoFactory(&config.Config{
		LLM: config.LLMConfig{DefaultProvider: "azure"},
	})
	return NewService(factory, store, cfg)
}

func TestInstructionBlock(t *testing.T) {
	assert.Equal(t, "", instructionBlock(""))
	assert.Equal(t, "", instructionBlock("   "))
	assert.Equal(t, "\n### 修正指示\n単価を税抜で出す\n", instructionBlock(" 単価を税抜で出す "))
}

func TestParse_PlainTextFallback(t *testing.T) {
	svc := newTestService(t)

	text, err := svc.Parse("note.txt", []byte("発注メモ 123"))
	require.NoError(t, err)
	assert.Equal(t, "発注メモ 123", text)
}

func TestDedupe_SavesExtractedText(t *testing.T) {
	svc := newTestService(t)

	text, msg, err := svc.Dedupe("memo.txt", []byte("該非判定の本文"))
	require.NoError(t, err)
	assert.Equal(t, "該非判定の本文", text)
	assert.Contains(t, msg, "新規ファイル")

	_, msg, err = svc.Dedupe("renamed.txt", []byte("該非判定の本文"))
	require.NoError(t, err)
	assert.Contains(t, msg, "再利用します")
}

func TestTree_DefaultMessage(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, "(tree.txt は作成されていません)", svc.Tree())
}
