package troublesearch

import (
	"math"
	"regexp"
	"strings"

	"ops-portal-api/internal/domain/entity"
)

// tokenPattern 抽取 2 文字以上の単語（各言語の文字・数字・アンダースコア）。
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// docText TF-IDF 対象テキスト
func docText(c *entity.TroubleCase) string {
	return strings.Join([]string{c.Title, c.Summary, c.RootCause, c.Countermeasure, c.TacitNotes}, " ")
}

// TFIDF 全事例コーパスから構築する TF-IDF インデックス。
// 文書・クエリとも L2 正規化した重みベクトルで表現し、
// スコアは両者の内積（コサイン類似度）になる。
type TFIDF struct {
	idf  map[string]float64
	docs map[string]map[string]float64
}

// BuildTFIDF 构建索引。texts は事例 ID → 文書テキスト。
func BuildTFIDF(texts map[string]string) *TFIDF {
	n := len(texts)
	df := make(map[string]int)
	counts := make(map[string]map[string]float64, n)

	for id, text := range texts {
		tf := make(map[string]float64)
		for _, tok := range tokenize(text) {
			tf[tok]++
		}
		counts[id] = tf
		for term := range tf {
			df[term]++
		}
	}

	idf := make(map[string]float64, len(df))
	for term, d := range df {
		idf[term] = math.Log(float64(1+n)/float64(1+d)) + 1
	}

	docs := make(map[string]map[string]float64, n)
	for id, tf := range counts {
		vec := make(map[string]float64, len(tf))
		var norm float64
		for term, c := range tf {
			w := c * idf[term]
			vec[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		docs[id] = vec
	}

	return &TFIDF{idf: idf, docs: docs}
}

// QueryVector 将查询转换为同一语彙空間のベクトル。
// 語彙にない語は無視される。
func (t *TFIDF) QueryVector(query string) map[string]float64 {
	tf := make(map[string]float64)
	for _, tok := range tokenize(query) {
		if _, known := t.idf[tok]; known {
			tf[tok]++
		}
	}
	var norm float64
	for term, c := range tf {
		w := c * t.idf[term]
		tf[term] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for term := range tf {
			tf[term] /= norm
		}
	}
	return tf
}

// Score 文書とクエリベクトルのコサイン類似度。
func (t *TFIDF) Score(queryVec map[string]float64, caseID string) float64 {
	doc, ok := t.docs[caseID]
	if !ok {
		return 0
	}
	var dot float64
	for term, qw := range queryVec {
		if dw, exists := doc[term]; exists {
			dot += qw * dw
		}
	}
	return dot
}

// Len 登録文書数。
func (t *TFIDF) Len() int {
	if t == nil {
		return 0
	}
	return len(t.docs)
}
