package kpi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/pkg/errors"
)

const kpiHeader = "date,uptime_rate,throughput_per_hr,downtime_min,defect_rate_pct,energy_kwh,profit_yen"

func buildCSV(rows ...string) []byte {
	return []byte(kpiHeader + "\n" + strings.Join(rows, "\n") + "\n")
}

func TestParseDataset_MissingColumns(t *testing.T) {
	_, err := parseDataset([]byte("date,uptime_rate,throughput_per_hr,downtime_min,defect_rate_pct\n2025-01-01,90,100,10,1\n"))
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeInvalidParam, appErr.Code)
	assert.Equal(t,
		"CSVに必要な列が不足しています。\n"+
			"必要列: date, defect_rate_pct, downtime_min, energy_kwh, profit_yen, throughput_per_hr, uptime_rate\n"+
			"不足列: energy_kwh, profit_yen",
		appErr.Message)
}

func TestParseDataset_SortsByDateAndNormalizes(t *testing.T) {
	ds, err := parseDataset(buildCSV(
		"2025/1/3,92,110,12,1.2,500,30000",
		"2025-01-01,90,100,10,1.0,480,28000",
		"20250102,91,105,11,1.1,490,29000",
	))
	require.NoError(t, err)
	require.Len(t, ds.records, 3)

	chart := ds.chart()
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, chart.Dates)
	assert.Equal(t, []float64{100, 105, 110}, chart.Series.ThroughputPerHr)
	assert.Equal(t, []float64{28000, 29000, 30000}, chart.Series.ProfitYen)
}

func TestParseDataset_BadNumber(t *testing.T) {
	_, err := parseDataset(buildCSV("2025-01-01,90,abc,10,1.0,480,28000"))
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeInvalidParam, appErr.Code)
	assert.Contains(t, appErr.Message, "throughput_per_hr を数値として解釈できません")
}

func TestParseDataset_BadDate(t *testing.T) {
	_, err := parseDataset(buildCSV("Jan 1st,90,100,10,1.0,480,28000"))
	require.Error(t, err)
	assert.Contains(t, errors.AsAppError(err).Message, "日付として解釈できません")
}

func TestParseDataset_HeaderOnly(t *testing.T) {
	_, err := parseDataset([]byte(kpiHeader + "\n"))
	require.Error(t, err)
	assert.Equal(t, "CSVにデータ行がありません", errors.AsAppError(err).Message)
}

func TestSummary_ComparesWithEighthFromLast(t *testing.T) {
	rows := []string{
		"2025-01-01,90,100,10,1.0,480,28000",
		"2025-01-02,90,100,10,1.0,480,28000",
		"2025-01-03,91,102,11,1.1,485,28500", // 10 行なのでここが比較対象
		"2025-01-04,90,100,10,1.0,480,28000",
		"2025-01-05,90,100,10,1.0,480,28000",
		"2025-01-06,90,100,10,1.0,480,28000",
		"2025-01-07,90,100,10,1.0,480,28000",
		"2025-01-08,90,100,10,1.0,480,28000",
		"2025-01-09,90,100,10,1.0,480,28000",
		"2025-01-10,93,110,8,0.9,470,31000",
	}
	ds, err := parseDataset(buildCSV(rows...))
	require.NoError(t, err)

	s := ds.summary()
	assert.Equal(t, "2025-01-10", s.LatestDate)
	assert.Equal(t, "2025-01-03", s.PrevDate)
	assert.InDelta(t, 110.0, s.ThroughputLatest, 1e-9)
	assert.InDelta(t, 8.0, s.ThroughputDiff, 1e-9)
	assert.InDelta(t, 31000.0-28500.0, s.ProfitDiff, 1e-9)
	assert.InDelta(t, 93.0-91.0, s.UptimeRateDiff, 1e-9)
}

func TestSummary_ShortDatasetFallsBackToFirstRow(t *testing.T) {
	ds, err := parseDataset(buildCSV(
		"2025-01-01,90,100,10,1.0,480,28000",
		"2025-01-02,91,105,9,0.8,475,29500",
	))
	require.NoError(t, err)

	s := ds.summary()
	assert.Equal(t, "2025-01-02", s.LatestDate)
	assert.Equal(t, "2025-01-01", s.PrevDate)
	assert.InDelta(t, 5.0, s.ThroughputDiff, 1e-9)
}

func TestFormatSummaryText(t *testing.T) {
	s := &Summary{
		LatestDate:       "2025-01-10",
		PrevDate:         "2025-01-03",
		UptimeRateLatest: 93, UptimeRateDiff: 2,
		ThroughputLatest: 110, ThroughputDiff: 8,
		DowntimeLatest: 8, DowntimeDiff: -3,
		DefectLatest: 0.9, DefectDiff: -0.2,
		EnergyLatest: 470, EnergyDiff: -15,
		ProfitLatest: 31000, ProfitDiff: 2500,
	}

	want := "【最新 vs 1週間前の比較】\n" +
		"利益: 31000 円 （差分: 2500 円）\n" +
		"生産量(throughput): 110 （差分: 8）\n" +
		"稼働率: 93% （差分: 2）\n" +
		"不良率: 0.9% （差分: -0.2）\n" +
		"ダウンタイム: 8 分 （差分: -3 分）\n" +
		"エネルギー消費: 470 kWh （差分: -15 kWh）\n"
	assert.Equal(t, want, formatSummaryText(s))
}

func TestParseDataset_ByteOrderMark(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, buildCSV("2025-01-01,90,100,10,1.0,480,28000")...)
	ds, err := parseDataset(raw)
	require.NoError(t, err)
	assert.Len(t, ds.records, 1)
}
