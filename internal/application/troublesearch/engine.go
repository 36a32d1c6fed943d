package troublesearch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"ops-portal-api/internal/domain/repository"
	"ops-portal-api/pkg/metrics"
)

const (
	defaultTopK = 20
	maxTopK     = 100

	// 再ランク前の候補数は top_k の 4 倍（下限 50）まで広げる
	candidateFactor = 4
	minCandidates   = 50

	// DefaultAlpha 再ランクの既定比重（TF-IDF 側）
	DefaultAlpha = 0.5
)

// Engine 事例検索エンジン。
// 向量検索（Milvus）の候補を全コーパス TF-IDF で再ランクする。
type Engine struct {
	embedder embedding.Embedder
	vector   VectorIndex
	cases    repository.TroubleCaseRepository

	mu     sync.RWMutex
	corpus *TFIDF
}

// NewEngine 创建検索エンジン
func NewEngine(embedder embedding.Embedder, vector VectorIndex, cases repository.TroubleCaseRepository) *Engine {
	return &Engine{
		embedder: embedder,
		vector:   vector,
		cases:    cases,
	}
}

// Enabled 向量検索が利用可能か
func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.vector != nil
}

// Search 事例検索。
// メタ情報フィルタ → 向量検索 → TF-IDF 再ランクの順で処理する。
func (e *Engine) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	start := time.Now()

	in.Query = strings.TrimSpace(in.Query)
	if in.Query == "" {
		return nil, ErrEmptyQuery
	}
	if in.TopK <= 0 {
		in.TopK = defaultTopK
	}
	if in.TopK > maxTopK {
		in.TopK = maxTopK
	}
	if in.Alpha < 0 {
		in.Alpha = 0
	}
	if in.Alpha > 1 {
		in.Alpha = 1
	}
	if !e.Enabled() {
		return nil, ErrVectorDisabled
	}

	// 1) メタ情報フィルタ
	filter := &repository.CaseFilter{
		Years:       in.Years,
		SeverityMin: in.SeverityMin,
		SeverityMax: in.SeverityMax,
		Products:    in.Products,
		Tags:        in.Tags,
	}
	restricted := !filter.IsZero()
	var allowed []string
	if restricted {
		ids, err := e.cases.FilterIDs(ctx, filter)
		if err != nil {
			metrics.TroubleSearchTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to filter cases: %w", err)
		}
		if len(ids) == 0 {
			metrics.TroubleSearchTotal.WithLabelValues("success").Inc()
			return &SearchOutput{Count: 0, Results: []Result{}}, nil
		}
		allowed = ids
	}

	// 2) クエリ埋め込み
	queryVec, err := e.embedQuery(ctx, in.Query)
	if err != nil {
		metrics.TroubleSearchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// 3) 向量検索（再ランク用に広めに取得）
	candidateLimit := in.TopK * candidateFactor
	if candidateLimit < minCandidates {
		candidateLimit = minCandidates
	}
	hits, err := e.vector.Search(ctx, queryVec, candidateLimit, allowed)
	if err != nil {
		metrics.TroubleSearchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	// 4) フィルタ通過事例との突き合わせ
	if restricted {
		allowedSet := make(map[string]struct{}, len(allowed))
		for _, id := range allowed {
			allowedSet[id] = struct{}{}
		}
		kept := make([]*VectorHit, 0, len(hits))
		for _, h := range hits {
			if _, ok := allowedSet[h.CaseID]; ok {
				kept = append(kept, h)
			}
		}
		hits = kept
	}
	if len(hits) == 0 {
		metrics.TroubleSearchTotal.WithLabelValues("success").Inc()
		metrics.TroubleSearchDuration.Observe(time.Since(start).Seconds())
		return &SearchOutput{Count: 0, Results: []Result{}}, nil
	}

	// 5) 事例本体の取得
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.CaseID)
	}
	cases, err := e.cases.ListByIDs(ctx, ids)
	if err != nil {
		metrics.TroubleSearchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load cases: %w", err)
	}
	caseMap := make(map[string]int, len(cases))
	for i, c := range cases {
		caseMap[c.ID] = i
	}

	// 6) TF-IDF 再ランク
	corpus, err := e.corpusIndex(ctx)
	if err != nil {
		metrics.TroubleSearchTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	queryTerms := corpus.QueryVector(in.Query)

	// インデックスと DB がずれている場合、本体のない命中は除外する
	candidates := make([]Result, 0, len(hits))
	for _, h := range hits {
		idx, ok := caseMap[h.CaseID]
		if !ok {
			continue
		}
		candidates = append(candidates, Result{
			Case:         cases[idx],
			VectorScore:  h.Score,
			LexicalScore: corpus.Score(queryTerms, h.CaseID),
		})
	}

	vecNorm := make([]float64, len(candidates))
	lexNorm := make([]float64, len(candidates))
	for i, c := range candidates {
		vecNorm[i] = c.VectorScore
		lexNorm[i] = c.LexicalScore
	}
	vecNorm = minmaxNorm(vecNorm)
	lexNorm = minmaxNorm(lexNorm)
	for i := range candidates {
		candidates[i].Score = (1-in.Alpha)*vecNorm[i] + in.Alpha*lexNorm[i]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	metrics.TroubleSearchTotal.WithLabelValues("success").Inc()
	metrics.TroubleSearchDuration.Observe(time.Since(start).Seconds())
	metrics.TroubleSearchCandidates.Observe(float64(len(candidates)))

	if len(candidates) > in.TopK {
		candidates = candidates[:in.TopK]
	}
	return &SearchOutput{Count: len(candidates), Results: candidates}, nil
}

// InvalidateCorpus 事例更新後に TF-IDF コーパスを破棄する
func (e *Engine) InvalidateCorpus() {
	e.mu.Lock()
	e.corpus = nil
	e.mu.Unlock()
}

// corpusIndex 获取 TF-IDF インデックス（必要時に全件から構築）
func (e *Engine) corpusIndex(ctx context.Context) (*TFIDF, error) {
	e.mu.RLock()
	if e.corpus != nil {
		defer e.mu.RUnlock()
		return e.corpus, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.corpus != nil {
		return e.corpus, nil
	}

	all, err := e.cases.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build tf-idf corpus: %w", err)
	}
	texts := make(map[string]string, len(all))
	for _, c := range all {
		texts[c.ID] = docText(c)
	}
	e.corpus = BuildTFIDF(texts)
	return e.corpus, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	v64, err := e.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec := v64[0]
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out, nil
}

// minmaxNorm 0〜1 スケーリング。レンジが退化している場合は全て 0 にする。
func minmaxNorm(xs []float64) []float64 {
	if len(xs) == 0 {
		return xs
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	out := make([]float64, len(xs))
	if hi-lo < 1e-9 {
		return out
	}
	for i, x := range xs {
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}
