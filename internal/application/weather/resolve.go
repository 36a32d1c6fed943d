package weather

import (
	"sort"
	"strings"

	"ops-portal-api/internal/infrastructure/jma"
)

// officeAliases 都市名と予報区名の対応。area.json の name に現れない呼び方を吸収する。
var officeAliases = map[string]string{
	"東京":  "東京都",
	"大阪":  "大阪府",
	"京都":  "京都府",
	"名古屋": "愛知県",
	"横浜":  "神奈川県",
	"神戸":  "兵庫県",
	"那覇":  "沖縄県",
	"仙台":  "宮城県",
	"広島":  "広島県",
	"福岡":  "福岡県",
	"松山":  "愛媛県",
	"高松":  "香川県",
	"稚内":  "宗谷地方",
	"釧路":  "釧路地方",
	"帯広":  "十勝地方",
	"大津":  "滋賀県",
	"札幌":  "石狩・空知・後志地方",
	"函館":  "渡島・檜山地方",
}

// normalizeDestination 都道府県サフィックスを落として比較しやすくする
func normalizeDestination(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range []string{"都", "道", "府", "県"} {
		s = strings.ReplaceAll(s, suffix, "")
	}
	return s
}

type officeMatch struct {
	Name string
	Code string
}

// resolveOffice 目的地文字列から予報区を推定する。
// まず office 名との部分一致（双方向）を試し、次に別名マップを引く。
func resolveOffice(dest string, offices map[string]jma.Office) *officeMatch {
	nd := normalizeDestination(dest)
	if nd == "" {
		return nil
	}

	codes := make([]string, 0, len(offices))
	for code := range offices {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		name := offices[code].Name
		if name == "" {
			name = code
		}
		n := normalizeDestination(name)
		if n != "" && (strings.Contains(nd, n) || strings.Contains(n, nd)) {
			return &officeMatch{Name: name, Code: code}
		}
	}

	nameToCode := make(map[string]string, len(offices))
	for _, code := range codes {
		nameToCode[offices[code].Name] = code
	}
	aliasKeys := make([]string, 0, len(officeAliases))
	for k := range officeAliases {
		aliasKeys = append(aliasKeys, k)
	}
	sort.Strings(aliasKeys)

	for _, k := range aliasKeys {
		name := officeAliases[k]
		if code, ok := nameToCode[name]; ok && strings.Contains(dest, k) {
			return &officeMatch{Name: name, Code: code}
		}
	}
	return nil
}
