package clothing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/infrastructure/llm"
)

func fptr(f float64) *float64 { return &f }

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"celsius suffix", "33℃", fptr(33)},
		{"percent suffix", "70%", fptr(70)},
		{"fullwidth minus", "－3", fptr(-3)},
		{"em dash minus", "—2.5", fptr(-2.5)},
		{"padded", " 18 ", fptr(18)},
		{"empty", "", nil},
		{"hyphen placeholder", "-", nil},
		{"nan literal", "NaN", nil},
		{"float value", 21.5, fptr(21.5)},
		{"int value", 7, fptr(7)},
		{"nil value", nil, nil},
		{"bool value", true, nil},
		{"garbage", "晴れ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toFloat(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestMaxNumeric(t *testing.T) {
	got := maxNumeric([]any{"10", "-", "80", nil, "40%"})
	require.NotNil(t, got)
	assert.InDelta(t, 80, *got, 1e-9)

	assert.Nil(t, maxNumeric(nil))
	assert.Nil(t, maxNumeric([]any{"-", ""}))
}

func TestGuessDayTemp(t *testing.T) {
	t.Run("prefers t0", func(t *testing.T) {
		got := guessDayTemp(Forecast{Today: ForecastDay{Temps: map[string]any{
			"t0": "33", "max": "35", "min": "26",
		}}})
		require.NotNil(t, got)
		assert.InDelta(t, 33, *got, 1e-9)
	})

	t.Run("falls back to max when t0 is unreadable", func(t *testing.T) {
		got := guessDayTemp(Forecast{Today: ForecastDay{Temps: map[string]any{
			"t0": "-", "max": "35",
		}}})
		require.NotNil(t, got)
		assert.InDelta(t, 35, *got, 1e-9)
	})

	t.Run("scans remaining keys", func(t *testing.T) {
		got := guessDayTemp(Forecast{Today: ForecastDay{Temps: map[string]any{
			"noon": "29",
		}}})
		require.NotNil(t, got)
		assert.InDelta(t, 29, *got, 1e-9)
	})

	t.Run("no usable value", func(t *testing.T) {
		assert.Nil(t, guessDayTemp(Forecast{}))
	})
}

func TestLayeringByTemp(t *testing.T) {
	tests := []struct {
		name string
		temp *float64
		want string
	}{
		{"missing", nil, "気温情報が不十分のため"},
		{"scorching", fptr(30), "かなり暑いです"},
		{"warm boundary", fptr(28), "かなり暑いです"},
		{"warm", fptr(25), "暖かい時期です"},
		{"mild", fptr(20), "過ごしやすい体感"},
		{"cool", fptr(15), "やや肌寒いです"},
		{"chilly", fptr(10), "肌寒い〜寒い体感"},
		{"cold", fptr(3), "寒いです"},
		{"freezing", fptr(-5), "非常に寒いです"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, layeringByTemp(tt.temp), tt.want)
		})
	}
}

func TestTips(t *testing.T) {
	assert.Contains(t, rainGearTip(fptr(70)), "降水確率が高めです")
	assert.Contains(t, rainGearTip(fptr(50)), "雨の可能性があります")
	assert.Contains(t, rainGearTip(fptr(30)), "にわか雨の可能性")
	assert.Empty(t, rainGearTip(fptr(29)))
	assert.Empty(t, rainGearTip(nil))

	assert.NotEmpty(t, windTip([]string{"南の風", "やや強く"}))
	assert.Empty(t, windTip([]string{"北の風"}))
	assert.Empty(t, windTip(nil))

	assert.NotEmpty(t, uvTip("快晴"))
	assert.NotEmpty(t, uvTip("晴れ　後　くもり"))
	assert.Empty(t, uvTip("くもり"))
}

func TestComposeMarkdown_FullForecast(t *testing.T) {
	got := ComposeMarkdown("東京都", Forecast{
		Today: ForecastDay{
			Weather: "晴れ　後　くもり",
			Pops:    []any{"10", "20", "30", "80"},
			Temps:   map[string]any{"t0": "33"},
		},
		Tomorrow: ForecastDay{Weather: "くもり"},
		Detail:   map[string][]string{"winds": {"南の風　やや強く"}},
	})

	want := strings.Join([]string{
		"### 👕 東京都 — 今日の服装アドバイス",
		"",
		"- **気温の目安**: 33℃ 前後",
		"- **天気**: 晴れ　後　くもり",
		"- **降水確率(最大)**: 80%",
		"",
		"かなり暑いです。半袖の軽装（通気性のよいTシャツ、リネン素材）＋薄手のボトムスがおすすめ。",
		"",
		"**ひとことメモ**",
		"- 降水確率が高めです。レインジャケットや防水シューズ、折りたたみでない傘を準備しましょう。",
		"- 風が強めの見込みです。フード付きアウターや風を通しにくい素材を選びましょう。",
		"- 日差しが強い時間帯があります。サングラスや帽子、日焼け止めの準備を。",
		"",
		"> 明日の見通し: くもり",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestComposeMarkdown_EmptyForecast(t *testing.T) {
	got := ComposeMarkdown("選択地域", Forecast{})

	want := strings.Join([]string{
		"### 👕 選択地域 — 今日の服装アドバイス",
		"",
		"- **気温の目安**: 取得できませんでした",
		"",
		"気温情報が不十分のため、重ね着で調整できる服装をおすすめします。",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestAdvise_FallsBackWithoutProvider(t *testing.T) {
	factory := llm.NewEinoFactory(&config.Config{
		LLM: config.LLMConfig{DefaultProvider: "azure"},
	})
	svc := NewService(factory)

	data := Forecast{Today: ForecastDay{Weather: "くもり"}}
	got := svc.Advise(context.Background(), AdviceInput{Data: data, UseAzure: true})

	assert.Equal(t, ComposeMarkdown("選択地域", data), got)
	assert.Contains(t, got, "### 👕 選択地域")
}

func TestAdvise_SkipsRefineWhenDisabled(t *testing.T) {
	svc := NewService(nil)

	got := svc.Advise(context.Background(), AdviceInput{
		PrefName: "大阪府",
		Data:     Forecast{Today: ForecastDay{Temps: map[string]any{"t0": "20"}}},
		UseAzure: false,
	})

	assert.Contains(t, got, "### 👕 大阪府")
	assert.Contains(t, got, "- **気温の目安**: 20℃ 前後")
}
