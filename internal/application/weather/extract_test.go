package weather

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/infrastructure/jma"
)

func forecastFixture() []jma.ForecastEntry {
	return []jma.ForecastEntry{
		{
			TimeSeries: []jma.TimeSeries{
				{
					TimeDefines: []string{"2025-08-25T05:00:00+09:00", "2025-08-26T05:00:00+09:00"},
					Areas: []jma.ForecastArea{{
						Area:         jma.AreaRef{Name: "東京地方", Code: "130010"},
						Weathers:     []string{"晴れ時々曇り", "曇り一時雨"},
						WeatherCodes: []string{"101", "203"},
						Winds:        []string{"南の風", "南の風　やや強く"},
					}},
				},
				{
					TimeDefines: []string{
						"2025-08-25T06:00:00+09:00", "2025-08-25T12:00:00+09:00",
						"2025-08-25T18:00:00+09:00", "2025-08-26T00:00:00+09:00",
						"2025-08-26T06:00:00+09:00", "2025-08-26T12:00:00+09:00",
						"2025-08-26T18:00:00+09:00", "2025-08-27T00:00:00+09:00",
					},
					Areas: []jma.ForecastArea{{
						Pops: []string{"10", "20", "30", "40", "50", "60", "70", "80"},
					}},
				},
				{
					TimeDefines: []string{"2025-08-25T09:00:00+09:00", "2025-08-26T09:00:00+09:00"},
					Areas: []jma.ForecastArea{{
						Temps: []string{"33", "29"},
					}},
				},
			},
		},
	}
}

func TestExtractForecast(t *testing.T) {
	ex := ExtractForecast(forecastFixture())

	require.NotNil(t, ex.Today.Weather)
	assert.Equal(t, "晴れ時々曇り", *ex.Today.Weather)
	require.NotNil(t, ex.Tomorrow.WeatherCode)
	assert.Equal(t, "203", *ex.Tomorrow.WeatherCode)

	assert.Equal(t, []string{"10", "20", "30", "40"}, ex.Today.Pops)
	assert.Equal(t, []string{"50", "60", "70", "80"}, ex.Tomorrow.Pops)
	assert.Len(t, ex.TimeDefines, 8)

	assert.Equal(t, "33", ex.Today.Temps["t0"])
	assert.Equal(t, "29", ex.Tomorrow.Temps["t0"])
	assert.Equal(t, []string{"南の風", "南の風　やや強く"}, ex.Detail["winds"])
}

func TestExtractForecast_Empty(t *testing.T) {
	ex := ExtractForecast(nil)

	assert.Nil(t, ex.Today.Weather)
	assert.Empty(t, ex.Today.Pops)
	assert.Empty(t, ex.TimeDefines)
	assert.Empty(t, ex.Detail)
}

func TestAsIntOrNone(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"30", intptr(30)},
		{"30%", intptr(30)},
		{" 40 ", intptr(40)},
		{"10.8", intptr(10)},
		{"-", nil},
		{"", nil},
		{"NaN", nil},
		{"nan", nil},
		{"abc", nil},
	}
	for _, tc := range cases {
		got := asIntOrNone(tc.in)
		if tc.want == nil {
			assert.Nil(t, got, "input %q", tc.in)
		} else {
			require.NotNil(t, got, "input %q", tc.in)
			assert.Equal(t, *tc.want, *got, "input %q", tc.in)
		}
	}
}

func intptr(v int) *int { return &v }

func TestBuildPopRows(t *testing.T) {
	ex := ExtractForecast(forecastFixture())
	rows := BuildPopRows(ex)

	want := []PopRow{
		{Day: "today", Slot: "2025-08-25T06:00:00+09:00", Pop: intptr(10)},
		{Day: "today", Slot: "2025-08-25T12:00:00+09:00", Pop: intptr(20)},
		{Day: "today", Slot: "2025-08-25T18:00:00+09:00", Pop: intptr(30)},
		{Day: "today", Slot: "2025-08-26T00:00:00+09:00", Pop: intptr(40)},
		{Day: "tomorrow", Slot: "2025-08-26T06:00:00+09:00", Pop: intptr(50)},
		{Day: "tomorrow", Slot: "2025-08-26T12:00:00+09:00", Pop: intptr(60)},
		{Day: "tomorrow", Slot: "2025-08-26T18:00:00+09:00", Pop: intptr(70)},
		{Day: "tomorrow", Slot: "2025-08-27T00:00:00+09:00", Pop: intptr(80)},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("BuildPopRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPopRows_WithoutTimeDefines(t *testing.T) {
	ex := &Extract{
		Today:    DaySummary{Pops: []string{"10", "-"}},
		Tomorrow: DaySummary{Pops: []string{"90"}},
	}
	rows := BuildPopRows(ex)

	require.Len(t, rows, 3)
	assert.Equal(t, "slot1", rows[0].Slot)
	assert.Nil(t, rows[1].Pop)
	assert.Equal(t, "tomorrow", rows[2].Day)
	require.NotNil(t, rows[2].Pop)
	assert.Equal(t, 90, *rows[2].Pop)
}

func TestBuildPopRows_OverflowSlots(t *testing.T) {
	// timeDefines 2 件に対して pops が 3 件ずつある場合、余りは slotN になる
	ex := &Extract{
		Today:       DaySummary{Pops: []string{"10", "20", "30"}},
		Tomorrow:    DaySummary{Pops: []string{"40", "50"}},
		TimeDefines: []string{"T1", "T2"},
	}
	rows := BuildPopRows(ex)

	require.Len(t, rows, 5)
	assert.Equal(t, "T1", rows[0].Slot)
	assert.Equal(t, "T2", rows[1].Slot)
	assert.Equal(t, "slot2", rows[2].Slot)
	assert.Equal(t, "today", rows[2].Day)
	assert.Equal(t, "slot3", rows[3].Slot)
	assert.Equal(t, "slot2", rows[4].Slot)
	assert.Equal(t, "tomorrow", rows[4].Day)
}

func TestMaxPops(t *testing.T) {
	ex := &Extract{
		Today:    DaySummary{Pops: []string{"10", "-", "70"}},
		Tomorrow: DaySummary{Pops: []string{"-"}},
	}
	today, tomorrow := MaxPops(ex)

	require.NotNil(t, today)
	assert.Equal(t, 70, *today)
	assert.Nil(t, tomorrow)
}
