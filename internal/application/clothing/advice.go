// Package clothing JMA 予報の抽出データから服装アドバイス Markdown を組み立てる
package clothing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ForecastDay クライアントが /weather/summary の data をそのまま返してくるため、
// 値の型は揺れる前提で受ける。
type ForecastDay struct {
	Weather string         `json:"weather"`
	Pops    []any          `json:"pops"`
	Temps   map[string]any `json:"temps"`
}

// Forecast 服装判断に使う範囲の予報データ
type Forecast struct {
	Today    ForecastDay         `json:"today"`
	Tomorrow ForecastDay         `json:"tomorrow"`
	Detail   map[string][]string `json:"detail"`
}

var tempReplacer = strings.NewReplacer("℃", "", "%", "", "－", "-", "—", "-")

// toFloat 文字列・数値どちらで来ても float に寄せる。読めない値は nil。
func toFloat(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case int:
		f := float64(x)
		return &f
	case string:
		s := tempReplacer.Replace(strings.TrimSpace(x))
		switch s {
		case "", "-", "NaN", "nan":
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func maxNumeric(values []any) *float64 {
	var best *float64
	for _, v := range values {
		if f := toFloat(v); f != nil && (best == nil || *f > *best) {
			best = f
		}
	}
	return best
}

// guessDayTemp 今日の代表気温。t0 を優先し、無ければ他のキーを総なめする。
func guessDayTemp(f Forecast) *float64 {
	temps := f.Today.Temps
	for _, key := range []string{"t0", "max", "min"} {
		if v, ok := temps[key]; ok {
			if fv := toFloat(v); fv != nil {
				return fv
			}
		}
	}

	keys := make([]string, 0, len(temps))
	for k := range temps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fv := toFloat(temps[k]); fv != nil {
			return fv
		}
	}
	return nil
}

func rainGearTip(maxPop *float64) string {
	if maxPop == nil {
		return ""
	}
	switch {
	case *maxPop >= 70:
		return "降水確率が高めです。レインジャケットや防水シューズ、折りたたみでない傘を準備しましょう。"
	case *maxPop >= 50:
		return "雨の可能性があります。軽量の雨具や防水バッグカバーがあると安心です。"
	case *maxPop >= 30:
		return "にわか雨の可能性があります。小さめの折りたたみ傘を携帯すると安心です。"
	}
	return ""
}

func windTip(winds []string) string {
	if strings.Contains(strings.Join(winds, " "), "強") {
		return "風が強めの見込みです。フード付きアウターや風を通しにくい素材を選びましょう。"
	}
	return ""
}

func uvTip(todayWeather string) string {
	if strings.Contains(todayWeather, "晴") {
		return "日差しが強い時間帯があります。サングラスや帽子、日焼け止めの準備を。"
	}
	return ""
}

func layeringByTemp(t *float64) string {
	if t == nil {
		return "気温情報が不十分のため、重ね着で調整できる服装をおすすめします。"
	}
	switch {
	case *t >= 28:
		return "かなり暑いです。半袖の軽装（通気性のよいTシャツ、リネン素材）＋薄手のボトムスがおすすめ。"
	case *t >= 23:
		return "暖かい時期です。半袖〜薄手の長袖。冷房対策に薄手の羽織りがあると安心。"
	case *t >= 18:
		return "過ごしやすい体感。長袖シャツや薄手ニット、ライトアウターで調整を。"
	case *t >= 12:
		return "やや肌寒いです。長袖＋カーディガン／ライトジャケット、薄手のスカーフも◎。"
	case *t >= 7:
		return "肌寒い〜寒い体感。中厚手のアウターやスウェット、インナーで保温を。"
	case *t >= 0:
		return "寒いです。コートや中綿ジャケット、マフラー・手袋などの防寒小物を。"
	}
	return "非常に寒いです。厚手のコートやダウン、保温インナー＋防風素材でしっかり防寒を。"
}

// ComposeMarkdown 規則ベースの服装アドバイスを Markdown で組み立てる
func ComposeMarkdown(prefName string, f Forecast) string {
	maxPop := maxNumeric(f.Today.Pops)
	dayTemp := guessDayTemp(f)

	var lines []string
	lines = append(lines, fmt.Sprintf("### 👕 %s — 今日の服装アドバイス", prefName))
	lines = append(lines, "")

	if dayTemp != nil {
		lines = append(lines, fmt.Sprintf("- **気温の目安**: %.0f℃ 前後", *dayTemp))
	} else {
		lines = append(lines, "- **気温の目安**: 取得できませんでした")
	}
	if f.Today.Weather != "" {
		lines = append(lines, fmt.Sprintf("- **天気**: %s", f.Today.Weather))
	}
	if maxPop != nil {
		lines = append(lines, fmt.Sprintf("- **降水確率(最大)**: %d%%", int(*maxPop)))
	}
	lines = append(lines, "")
	lines = append(lines, layeringByTemp(dayTemp))

	var tips []string
	for _, tip := range []string{
		rainGearTip(maxPop),
		windTip(f.Detail["winds"]),
		uvTip(f.Today.Weather),
	} {
		if tip != "" {
			tips = append(tips, tip)
		}
	}
	if len(tips) > 0 {
		lines = append(lines, "")
		lines = append(lines, "**ひとことメモ**")
		for _, tip := range tips {
			lines = append(lines, "- "+tip)
		}
	}

	if f.Tomorrow.Weather != "" {
		lines = append(lines, "")
		lines = append(lines, "> 明日の見通し: "+f.Tomorrow.Weather)
	}

	return strings.Join(lines, "\n")
}
