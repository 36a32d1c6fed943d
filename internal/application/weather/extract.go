package weather

import "ops-portal-api/internal/infrastructure/jma"

// DaySummary 1 日分の抽出結果。取れなかった項目は null で返す。
type DaySummary struct {
	Weather     *string           `json:"weather"`
	WeatherCode *string           `json:"weather_code"`
	Pops        []string          `json:"pops"`
	Temps       map[string]string `json:"temps"`
}

// Extract 予報 JSON から UI と要約に必要な部分だけを抜いたもの
type Extract struct {
	Today       DaySummary          `json:"today"`
	Tomorrow    DaySummary          `json:"tomorrow"`
	TimeDefines []string            `json:"timeDefines"`
	Detail      map[string][]string `json:"detail"`
}

// ExtractForecast 短期予報（先頭エントリ）から today/tomorrow を抽出する。
// JMA の JSON は系列ごとに入る配列が違うため、存在するものだけ拾う。
func ExtractForecast(entries []jma.ForecastEntry) *Extract {
	out := &Extract{
		Today:       DaySummary{Pops: []string{}, Temps: map[string]string{}},
		Tomorrow:    DaySummary{Pops: []string{}, Temps: map[string]string{}},
		TimeDefines: []string{},
		Detail:      map[string][]string{},
	}
	if len(entries) == 0 {
		return out
	}

	for _, ts := range entries[0].TimeSeries {
		if len(ts.Areas) == 0 {
			continue
		}
		a0 := ts.Areas[0]

		if len(a0.Weathers) >= 1 {
			out.Today.Weather = strptr(a0.Weathers[0])
		}
		if len(a0.Weathers) >= 2 {
			out.Tomorrow.Weather = strptr(a0.Weathers[1])
		}
		if len(a0.WeatherCodes) >= 1 {
			out.Today.WeatherCode = strptr(a0.WeatherCodes[0])
		}
		if len(a0.WeatherCodes) >= 2 {
			out.Tomorrow.WeatherCode = strptr(a0.WeatherCodes[1])
		}

		if len(a0.Pops) > 0 {
			half := len(a0.Pops)
			if half > 1 {
				half /= 2
			}
			out.Today.Pops = a0.Pops[:half]
			out.Tomorrow.Pops = a0.Pops[half:]
			out.TimeDefines = ts.TimeDefines
		}

		if len(a0.Temps) > 0 {
			out.Today.Temps["t0"] = a0.Temps[0]
		}
		if len(a0.Temps) > 1 {
			out.Tomorrow.Temps["t0"] = a0.Temps[1]
		}

		if len(a0.Winds) > 0 {
			out.Detail["winds"] = a0.Winds
		}
		if len(a0.Waves) > 0 {
			out.Detail["waves"] = a0.Waves
		}
		if len(a0.Reliabilities) > 0 {
			out.Detail["reliabilities"] = a0.Reliabilities
		}
	}
	return out
}

func strptr(s string) *string { return &s }
