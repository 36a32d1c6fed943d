package troublesearch

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/domain/repository"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeVectorIndex struct {
	hits        []*VectorHit
	lastTopK    int
	lastAllowed []string
	searchCalls int
	upserted    []*IndexEntry
	deleted     []string
}

func (f *fakeVectorIndex) EnsureCollection(context.Context) error { return nil }

func (f *fakeVectorIndex) Search(_ context.Context, _ []float32, topK int, allowedIDs []string) ([]*VectorHit, error) {
	f.searchCalls++
	f.lastTopK = topK
	f.lastAllowed = allowedIDs
	return f.hits, nil
}

func (f *fakeVectorIndex) Upsert(_ context.Context, vectors []*IndexEntry) error {
	f.upserted = append(f.upserted, vectors...)
	return nil
}

func (f *fakeVectorIndex) Delete(_ context.Context, caseIDs []string) error {
	f.deleted = append(f.deleted, caseIDs...)
	return nil
}

type fakeCaseRepo struct {
	cases        map[string]*entity.TroubleCase
	filterIDs    []string
	filterCalls  int
	listAllCalls int
}

func newFakeCaseRepo(cases ...*entity.TroubleCase) *fakeCaseRepo {
	m := make(map[string]*entity.TroubleCase, len(cases))
	for _, c := range cases {
		m[c.ID] = c
	}
	return &fakeCaseRepo{cases: m}
}

func (f *fakeCaseRepo) Upsert(_ context.Context, cases []*entity.TroubleCase) error {
	for _, c := range cases {
		f.cases[c.ID] = c
	}
	return nil
}

func (f *fakeCaseRepo) GetByID(_ context.Context, id string) (*entity.TroubleCase, error) {
	return f.cases[id], nil
}

func (f *fakeCaseRepo) ListByIDs(_ context.Context, ids []string) ([]*entity.TroubleCase, error) {
	out := make([]*entity.TroubleCase, 0, len(ids))
	for _, id := range ids {
		if c, ok := f.cases[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCaseRepo) ListAll(_ context.Context) ([]*entity.TroubleCase, error) {
	f.listAllCalls++
	out := make([]*entity.TroubleCase, 0, len(f.cases))
	for _, c := range f.cases {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCaseRepo) FilterIDs(_ context.Context, _ *repository.CaseFilter) ([]string, error) {
	f.filterCalls++
	return f.filterIDs, nil
}

func (f *fakeCaseRepo) Update(_ context.Context, c *entity.TroubleCase) error {
	f.cases[c.ID] = c
	return nil
}

func (f *fakeCaseRepo) Count(context.Context) (int64, error) {
	return int64(len(f.cases)), nil
}

func testCase(id, title, summary string) *entity.TroubleCase {
	c := &entity.TroubleCase{ID: id, Title: title, Summary: summary}
	c.Normalize()
	return c
}

func TestSearch_EmptyQuery(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{}, &fakeVectorIndex{}, newFakeCaseRepo())

	_, err := engine.Search(context.Background(), SearchInput{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_VectorDisabled(t *testing.T) {
	engine := NewEngine(nil, nil, newFakeCaseRepo())
	assert.False(t, engine.Enabled())

	_, err := engine.Search(context.Background(), SearchInput{Query: "障害"})
	assert.ErrorIs(t, err, ErrVectorDisabled)
}

func TestSearch_RerankAlpha(t *testing.T) {
	c1 := testCase("c1", "入庫処理でDB接続タイムアウト", "DB接続 タイムアウト が多発")
	c2 := testCase("c2", "帳票出力の文字化け", "帳票 フォント 化け")
	c3 := testCase("c3", "バッチ二重起動", "在庫数 不整合")
	repo := newFakeCaseRepo(c1, c2, c3)
	vector := &fakeVectorIndex{hits: []*VectorHit{
		{CaseID: "c2", Score: 0.9},
		{CaseID: "c1", Score: 0.8},
		{CaseID: "c3", Score: 0.1},
	}}
	engine := NewEngine(&fakeEmbedder{}, vector, repo)

	// 向量のみ（alpha=0）では c2 が先頭
	out, err := engine.Search(context.Background(), SearchInput{Query: "DB接続 タイムアウト", Alpha: 0})
	require.NoError(t, err)
	require.Equal(t, 3, out.Count)
	assert.Equal(t, "c2", out.Results[0].Case.ID)

	// TF-IDF のみ（alpha=1）では字句一致の強い c1 が先頭に入れ替わる
	out, err = engine.Search(context.Background(), SearchInput{Query: "DB接続 タイムアウト", Alpha: 1})
	require.NoError(t, err)
	assert.Equal(t, "c1", out.Results[0].Case.ID)
	assert.Greater(t, out.Results[0].LexicalScore, out.Results[1].LexicalScore)
}

func TestSearch_CandidateLimit(t *testing.T) {
	repo := newFakeCaseRepo(testCase("c1", "タイトル", ""))
	vector := &fakeVectorIndex{hits: []*VectorHit{{CaseID: "c1", Score: 0.5}}}
	engine := NewEngine(&fakeEmbedder{}, vector, repo)

	// 既定 top_k=20 の 4 倍を候補として要求する
	_, err := engine.Search(context.Background(), SearchInput{Query: "タイトル"})
	require.NoError(t, err)
	assert.Equal(t, 80, vector.lastTopK)

	// top_k は 100 に丸められ、候補はその 4 倍
	_, err = engine.Search(context.Background(), SearchInput{Query: "タイトル", TopK: 500})
	require.NoError(t, err)
	assert.Equal(t, 400, vector.lastTopK)
}

func TestSearch_FilterRestrictsHits(t *testing.T) {
	c1 := testCase("c1", "対象事例", "本文")
	c2 := testCase("c2", "対象外事例", "本文")
	repo := newFakeCaseRepo(c1, c2)
	repo.filterIDs = []string{"c1"}
	vector := &fakeVectorIndex{hits: []*VectorHit{
		{CaseID: "c2", Score: 0.9},
		{CaseID: "c1", Score: 0.5},
	}}
	engine := NewEngine(&fakeEmbedder{}, vector, repo)

	out, err := engine.Search(context.Background(), SearchInput{Query: "対象事例", Years: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, vector.lastAllowed)

	// フィルタを通らない c2 は命中していても除外される
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "c1", out.Results[0].Case.ID)
}

func TestSearch_FilterNoMatch(t *testing.T) {
	repo := newFakeCaseRepo(testCase("c1", "事例", ""))
	repo.filterIDs = nil
	vector := &fakeVectorIndex{}
	engine := NewEngine(&fakeEmbedder{}, vector, repo)

	out, err := engine.Search(context.Background(), SearchInput{Query: "事例", Years: 1})
	require.NoError(t, err)
	assert.Zero(t, out.Count)
	assert.Empty(t, out.Results)
	// 候補ゼロ確定後は向量検索を呼ばない
	assert.Zero(t, vector.searchCalls)
}

func TestSearch_StaleHitDropped(t *testing.T) {
	repo := newFakeCaseRepo(testCase("c1", "現存事例", ""))
	vector := &fakeVectorIndex{hits: []*VectorHit{
		{CaseID: "ghost", Score: 0.9},
		{CaseID: "c1", Score: 0.5},
	}}
	engine := NewEngine(&fakeEmbedder{}, vector, repo)

	out, err := engine.Search(context.Background(), SearchInput{Query: "現存事例"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "c1", out.Results[0].Case.ID)
}

func TestSearch_TopKTruncates(t *testing.T) {
	cases := []*entity.TroubleCase{
		testCase("c1", "事例 一", ""),
		testCase("c2", "事例 二", ""),
		testCase("c3", "事例 三", ""),
	}
	repo := newFakeCaseRepo(cases...)
	vector := &fakeVectorIndex{hits: []*VectorHit{
		{CaseID: "c1", Score: 0.9},
		{CaseID: "c2", Score: 0.8},
		{CaseID: "c3", Score: 0.7},
	}}
	engine := NewEngine(&fakeEmbedder{}, vector, repo)

	out, err := engine.Search(context.Background(), SearchInput{Query: "事例", TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Results, 2)
}

func TestInvalidateCorpus(t *testing.T) {
	repo := newFakeCaseRepo(testCase("c1", "事例", ""))
	vector := &fakeVectorIndex{hits: []*VectorHit{{CaseID: "c1", Score: 0.5}}}
	engine := NewEngine(&fakeEmbedder{}, vector, repo)

	_, err := engine.Search(context.Background(), SearchInput{Query: "事例"})
	require.NoError(t, err)
	_, err = engine.Search(context.Background(), SearchInput{Query: "事例"})
	require.NoError(t, err)
	// コーパスはキャッシュされ全件取得は一度だけ
	assert.Equal(t, 1, repo.listAllCalls)

	engine.InvalidateCorpus()
	_, err = engine.Search(context.Background(), SearchInput{Query: "事例"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listAllCalls)
}
