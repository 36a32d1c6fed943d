package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/infrastructure/jma"
	"ops-portal-api/internal/infrastructure/llm"
	"ops-portal-api/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/area.json", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"offices": map[string]any{
				"130000": map[string]string{"name": "東京都"},
				"270000": map[string]string{"name": "大阪府"},
			},
		})
	})
	mux.HandleFunc("/forecast/130000.json", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"timeSeries": []map[string]any{
					{
						"timeDefines": []string{"T1", "T2"},
						"areas": []map[string]any{{
							"weathers":     []string{"晴れ", "雨"},
							"weatherCodes": []string{"100", "300"},
						}},
					},
					{
						"timeDefines": []string{"T1", "T2", "T3", "T4"},
						"areas": []map[string]any{{
							"pops": []string{"0", "10", "50", "60"},
						}},
					},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := jma.NewClient(&config.WeatherConfig{
		AreaURL:     srv.URL + "/area.json",
		ForecastURL: srv.URL + "/forecast/%s.json",
		IconBaseURL: "https://www.jma.go.jp/bosai/forecast/img/",
	}, nil)

	factory := llm.NewEinoFactory(&config.Config{
		LLM: config.LLMConfig{DefaultProvider: "azure"},
	})
	return NewService(factory, client)
}

func TestSummarize(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Summarize(context.Background(), "東京")
	require.NoError(t, err)

	assert.Equal(t, "東京都", got.PrefName)
	assert.Equal(t, "130000", got.OfficeCode)

	require.NotNil(t, got.Data.Today.Weather)
	assert.Equal(t, "晴れ", *got.Data.Today.Weather)
	assert.Equal(t, []string{"0", "10"}, got.Data.Today.Pops)

	require.NotNil(t, got.MaxPopToday)
	assert.Equal(t, 10, *got.MaxPopToday)
	require.NotNil(t, got.MaxPopTomorrow)
	assert.Equal(t, 60, *got.MaxPopTomorrow)

	require.NotNil(t, got.IconToday)
	assert.Equal(t, "https://www.jma.go.jp/bosai/forecast/img/100.svg", *got.IconToday)

	// LLM 未設定のため決め打ち文面になる
	assert.Contains(t, got.Summary, "東京都")
	assert.Contains(t, got.Summary, "晴れ")
	assert.Len(t, got.PopRows, 4)
}

func TestSummarize_EmptyDestination(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Summarize(context.Background(), "   ")
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeInvalidParam, appErr.Code)
	assert.Equal(t, "destination is required", appErr.Message)
}

func TestSummarize_UnknownDestination(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Summarize(context.Background(), "ロンドン")
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeOfficeNotFound, appErr.Code)
	assert.Equal(t, "destination did not match any office", appErr.Message)
}

func TestSummarize_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := jma.NewClient(&config.WeatherConfig{
		AreaURL:     srv.URL + "/area.json",
		ForecastURL: srv.URL + "/forecast/%s.json",
	}, nil)
	svc := NewService(nil, client)

	_, err := svc.Summarize(context.Background(), "東京")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUpstreamFailed, errors.AsAppError(err).Code)
}
