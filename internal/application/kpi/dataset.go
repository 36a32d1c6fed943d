package kpi

import (
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/utils"
)

// CSV 列名（固定）
const (
	colDate       = "date"
	colUptime     = "uptime_rate"
	colThroughput = "throughput_per_hr"
	colDowntime   = "downtime_min"
	colDefect     = "defect_rate_pct"
	colEnergy     = "energy_kwh"
	colProfit     = "profit_yen"
)

var requiredColumns = []string{colDate, colUptime, colThroughput, colDowntime, colDefect, colEnergy, colProfit}

// dateLayouts 現場の CSV は区切りとゼロ詰めが揺れるため複数書式を受ける
var dateLayouts = []string{"2006-1-2", "2006/1/2", "20060102"}

// Summary 最新行と 1 週間前（8 行前）の比較
type Summary struct {
	LatestDate string `json:"latest_date"`
	PrevDate   string `json:"prev_date"`

	UptimeRateLatest float64 `json:"uptime_rate_latest"`
	UptimeRateDiff   float64 `json:"uptime_rate_diff"`

	ThroughputLatest float64 `json:"throughput_latest"`
	ThroughputDiff   float64 `json:"throughput_diff"`

	DowntimeLatest float64 `json:"downtime_latest"`
	DowntimeDiff   float64 `json:"downtime_diff"`

	DefectLatest float64 `json:"defect_latest"`
	DefectDiff   float64 `json:"defect_diff"`

	EnergyLatest float64 `json:"energy_latest"`
	EnergyDiff   float64 `json:"energy_diff"`

	ProfitLatest float64 `json:"profit_latest"`
	ProfitDiff   float64 `json:"profit_diff"`
}

// ChartSeries フロントの折れ線グラフ用の系列
type ChartSeries struct {
	UptimeRate      []float64 `json:"uptime_rate"`
	ThroughputPerHr []float64 `json:"throughput_per_hr"`
	DowntimeMin     []float64 `json:"downtime_min"`
	DefectRatePct   []float64 `json:"defect_rate_pct"`
	EnergyKwh       []float64 `json:"energy_kwh"`
	ProfitYen       []float64 `json:"profit_yen"`
}

// Chart 日付昇順の全系列
type Chart struct {
	Dates  []string    `json:"dates"`
	Series ChartSeries `json:"series"`
}

type record struct {
	date       time.Time
	uptime     float64
	throughput float64
	downtime   float64
	defect     float64
	energy     float64
	profit     float64
}

type dataset struct {
	records []record
}

// parseDataset CSV バイト列を検証済みの日付昇順データセットにする
func parseDataset(raw []byte) (*dataset, error) {
	reader := csv.NewReader(strings.NewReader(utils.DecodeJapaneseText(raw)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.New(errors.CodeParseFailed, fmt.Sprintf("CSV parse error: %v", err))
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "CSVが空です")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.CodeInvalidParam, missingColumnsMessage(missing))
	}

	records := make([]record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec, rowErr := parseRecord(index, row)
		if rowErr != nil {
			return nil, errors.New(errors.CodeInvalidParam, fmt.Sprintf("%d行目: %v", i+2, rowErr))
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "CSVにデータ行がありません")
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].date.Before(records[j].date)
	})
	return &dataset{records: records}, nil
}

func missingColumnsMessage(missing []string) string {
	required := append([]string(nil), requiredColumns...)
	sort.Strings(required)
	sort.Strings(missing)
	return fmt.Sprintf("CSVに必要な列が不足しています。\n必要列: %s\n不足列: %s",
		strings.Join(required, ", "), strings.Join(missing, ", "))
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseRecord(index map[string]int, row []string) (record, error) {
	var rec record

	text, err := cellAt(index, row, colDate)
	if err != nil {
		return rec, err
	}
	rec.date, err = parseDate(text)
	if err != nil {
		return rec, err
	}

	for _, field := range []struct {
		col string
		dst *float64
	}{
		{colUptime, &rec.uptime},
		{colThroughput, &rec.throughput},
		{colDowntime, &rec.downtime},
		{colDefect, &rec.defect},
		{colEnergy, &rec.energy},
		{colProfit, &rec.profit},
	} {
		text, err := cellAt(index, row, field.col)
		if err != nil {
			return rec, err
		}
		v, parseErr := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if parseErr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return rec, fmt.Errorf("%s を数値として解釈できません: %q", field.col, text)
		}
		*field.dst = v
	}
	return rec, nil
}

func cellAt(index map[string]int, row []string, col string) (string, error) {
	i := index[col]
	if i >= len(row) {
		return "", fmt.Errorf("%s 列の値がありません", col)
	}
	return row[i], nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date を日付として解釈できません: %q", s)
}

// summary 最新行と比較行（8 行前、足りなければ先頭行）の差分を取る
func (d *dataset) summary() *Summary {
	latest := d.records[len(d.records)-1]
	prev := d.records[0]
	if len(d.records) >= 8 {
		prev = d.records[len(d.records)-8]
	}

	return &Summary{
		LatestDate: latest.date.Format("2006-01-02"),
		PrevDate:   prev.date.Format("2006-01-02"),

		UptimeRateLatest: latest.uptime,
		UptimeRateDiff:   latest.uptime - prev.uptime,

		ThroughputLatest: latest.throughput,
		ThroughputDiff:   latest.throughput - prev.throughput,

		DowntimeLatest: latest.downtime,
		DowntimeDiff:   latest.downtime - prev.downtime,

		DefectLatest: latest.defect,
		DefectDiff:   latest.defect - prev.defect,

		EnergyLatest: latest.energy,
		EnergyDiff:   latest.energy - prev.energy,

		ProfitLatest: latest.profit,
		ProfitDiff:   latest.profit - prev.profit,
	}
}

func (d *dataset) chart() *Chart {
	c := &Chart{Dates: make([]string, 0, len(d.records))}
	for _, r := range d.records {
		c.Dates = append(c.Dates, r.date.Format("2006-01-02"))
		c.Series.UptimeRate = append(c.Series.UptimeRate, r.uptime)
		c.Series.ThroughputPerHr = append(c.Series.ThroughputPerHr, r.throughput)
		c.Series.DowntimeMin = append(c.Series.DowntimeMin, r.downtime)
		c.Series.DefectRatePct = append(c.Series.DefectRatePct, r.defect)
		c.Series.EnergyKwh = append(c.Series.EnergyKwh, r.energy)
		c.Series.ProfitYen = append(c.Series.ProfitYen, r.profit)
	}
	return c
}

// formatSummaryText LLM への入力に使う比較サマリー
func formatSummaryText(s *Summary) string {
	var b strings.Builder
	b.WriteString("【最新 vs 1週間前の比較】\n")
	fmt.Fprintf(&b, "利益: %s 円 （差分: %s 円）\n", num(s.ProfitLatest), num(s.ProfitDiff))
	fmt.Fprintf(&b, "生産量(throughput): %s （差分: %s）\n", num(s.ThroughputLatest), num(s.ThroughputDiff))
	fmt.Fprintf(&b, "稼働率: %s%% （差分: %s）\n", num(s.UptimeRateLatest), num(s.UptimeRateDiff))
	fmt.Fprintf(&b, "不良率: %s%% （差分: %s）\n", num(s.DefectLatest), num(s.DefectDiff))
	fmt.Fprintf(&b, "ダウンタイム: %s 分 （差分: %s 分）\n", num(s.DowntimeLatest), num(s.DowntimeDiff))
	fmt.Fprintf(&b, "エネルギー消費: %s kWh （差分: %s kWh）\n", num(s.EnergyLatest), num(s.EnergyDiff))
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
