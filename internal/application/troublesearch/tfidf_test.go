package troublesearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	toks := tokenize("DB接続エラー retry-timeout 30sec X")
	assert.Equal(t, []string{"db接続エラー", "retry", "timeout", "30sec"}, toks)
	// 1 文字トークンは拾わない
	assert.NotContains(t, toks, "x")
}

func TestBuildTFIDF_ScoreRanking(t *testing.T) {
	corpus := BuildTFIDF(map[string]string{
		"c1": "データベース 接続 タイムアウト 障害",
		"c2": "データベース バックアップ 失敗",
		"c3": "ネットワーク 疎通 不可",
	})
	require.Equal(t, 3, corpus.Len())

	q := corpus.QueryVector("データベース 接続 タイムアウト")
	s1 := corpus.Score(q, "c1")
	s2 := corpus.Score(q, "c2")
	s3 := corpus.Score(q, "c3")

	// クエリ語を多く含む文書ほど高スコア
	assert.Greater(t, s1, s2)
	assert.Greater(t, s2, s3)
	assert.Zero(t, s3)

	// コサイン類似度なので 0〜1 に収まる
	assert.LessOrEqual(t, s1, 1.0+1e-9)
}

func TestTFIDF_SelfSimilarity(t *testing.T) {
	corpus := BuildTFIDF(map[string]string{
		"c1": "在庫 引当 二重 計上",
	})
	q := corpus.QueryVector("在庫 引当 二重 計上")
	assert.InDelta(t, 1.0, corpus.Score(q, "c1"), 1e-9)
}

func TestTFIDF_UnknownTermsIgnored(t *testing.T) {
	corpus := BuildTFIDF(map[string]string{"c1": "既知 の 文書"})

	// 語彙に存在しない語だけのクエリはゼロベクトルになる
	q := corpus.QueryVector("完全に 未知 語彙")
	assert.Empty(t, q)
	assert.Zero(t, corpus.Score(q, "c1"))
}

func TestTFIDF_UnknownDoc(t *testing.T) {
	corpus := BuildTFIDF(map[string]string{"c1": "some doc"})
	q := corpus.QueryVector("some doc")
	assert.Zero(t, corpus.Score(q, "no-such-case"))
}

func TestTFIDF_EmptyCorpus(t *testing.T) {
	corpus := BuildTFIDF(nil)
	assert.Zero(t, corpus.Len())
	assert.Empty(t, corpus.QueryVector("anything"))
}

func TestMinmaxNorm(t *testing.T) {
	out := minmaxNorm([]float64{2, 4, 6})
	assert.Equal(t, []float64{0, 0.5, 1}, out)

	// レンジ退化時は全て 0
	assert.Equal(t, []float64{0, 0, 0}, minmaxNorm([]float64{3, 3, 3}))
	assert.Empty(t, minmaxNorm(nil))
}
