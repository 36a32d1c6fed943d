package weather

import (
	"fmt"
	"strconv"
	"strings"
)

// PopRow 降水確率テーブルの 1 行。取れない時間帯は pop が null。
type PopRow struct {
	Day  string `json:"day"`
	Slot string `json:"slot"`
	Pop  *int   `json:"pop"`
}

// asIntOrNone "30%" や "-" などの表記揺れを int か nil に寄せる
func asIntOrNone(s string) *int {
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	switch s {
	case "", "-", "NaN", "nan":
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}

// BuildPopRows timeDefines を today/tomorrow に折半して降水確率の行を作る。
// timeDefines と pops の件数がズレることがあるため、余った分は slotN で補う。
func BuildPopRows(ex *Extract) []PopRow {
	popsToday := ex.Today.Pops
	popsTomorrow := ex.Tomorrow.Pops

	if len(ex.TimeDefines) == 0 {
		rows := make([]PopRow, 0, len(popsToday)+len(popsTomorrow))
		for i, p := range popsToday {
			rows = append(rows, PopRow{Day: "today", Slot: fmt.Sprintf("slot%d", i+1), Pop: asIntOrNone(p)})
		}
		for i, p := range popsTomorrow {
			rows = append(rows, PopRow{Day: "tomorrow", Slot: fmt.Sprintf("slot%d", i+1), Pop: asIntOrNone(p)})
		}
		return rows
	}

	half := len(ex.TimeDefines)
	if half > 1 {
		half /= 2
	}
	tdToday := ex.TimeDefines[:half]
	tdTomorrow := ex.TimeDefines[half:]

	rows := make([]PopRow, 0, len(tdToday)+len(tdTomorrow))
	for i, t := range tdToday {
		var pop *int
		if i < len(popsToday) {
			pop = asIntOrNone(popsToday[i])
		}
		rows = append(rows, PopRow{Day: "today", Slot: t, Pop: pop})
	}
	for i, t := range tdTomorrow {
		var pop *int
		if i < len(popsTomorrow) {
			pop = asIntOrNone(popsTomorrow[i])
		}
		rows = append(rows, PopRow{Day: "tomorrow", Slot: t, Pop: pop})
	}

	for i := len(tdToday); i < len(popsToday); i++ {
		rows = append(rows, PopRow{Day: "today", Slot: fmt.Sprintf("slot%d", i+1), Pop: asIntOrNone(popsToday[i])})
	}
	for i := len(tdTomorrow); i < len(popsTomorrow); i++ {
		rows = append(rows, PopRow{Day: "tomorrow", Slot: fmt.Sprintf("slot%d", i+1), Pop: asIntOrNone(popsTomorrow[i])})
	}
	return rows
}

// MaxPops 日別の最大降水確率。値が一つも無い日は nil。
func MaxPops(ex *Extract) (today, tomorrow *int) {
	return maxPop(ex.Today.Pops), maxPop(ex.Tomorrow.Pops)
}

func maxPop(pops []string) *int {
	var best *int
	for _, p := range pops {
		if v := asIntOrNone(p); v != nil && (best == nil || *v > *best) {
			best = v
		}
	}
	return best
}
