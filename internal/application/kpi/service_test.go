package kpi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/infrastructure/llm"
)

func TestAnalyze_SkipsReasoningWithoutProvider(t *testing.T) {
	factory := llm.NewEinoFactory(&config.Config{
		LLM: config.LLMConfig{DefaultProvider: "azure"},
	})
	svc := NewService(factory)

	got, err := svc.Analyze(context.Background(), buildCSV(
		"2025-01-01,90,100,10,1.0,480,28000",
		"2025-01-02,91,105,9,0.8,475,29500",
	))
	require.NoError(t, err)

	assert.Equal(t, reasoningSkipped, got.Reasoning)
	assert.Equal(t, "2025-01-02", got.KPIs.LatestDate)
	require.NotNil(t, got.Chart)
	assert.Len(t, got.Chart.Dates, 2)
}

func TestAnalyze_InvalidCSV(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Analyze(context.Background(), []byte("a,b\n1,2\n"))
	require.Error(t, err)
}
