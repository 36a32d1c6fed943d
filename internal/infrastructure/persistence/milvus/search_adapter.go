package milvus

import (
	"context"

	"ops-portal-api/internal/application/troublesearch"
)

// SearchVectorIndex 将 Repository 适配为应用层的 VectorIndex port
type SearchVectorIndex struct {
	repo *Repository
	dim  int
}

func NewSearchVectorIndex(repo *Repository, dim int) *SearchVectorIndex {
	if dim <= 0 {
		dim = VectorDimension
	}
	return &SearchVectorIndex{repo: repo, dim: dim}
}

var _ troublesearch.VectorIndex = (*SearchVectorIndex)(nil)

func (a *SearchVectorIndex) EnsureCollection(ctx context.Context) error {
	if a == nil || a.repo == nil {
		return troublesearch.ErrVectorDisabled
	}
	return a.repo.EnsureCollection(ctx, a.dim)
}

func (a *SearchVectorIndex) Search(ctx context.Context, queryVector []float32, topK int, allowedIDs []string) ([]*troublesearch.VectorHit, error) {
	if a == nil || a.repo == nil {
		return nil, troublesearch.ErrVectorDisabled
	}

	out, err := a.repo.SearchCases(ctx, &SearchParams{
		QueryVector: queryVector,
		TopK:        topK,
		AllowedIDs:  allowedIDs,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*troublesearch.VectorHit, 0, len(out))
	for i := range out {
		h := out[i]
		if h == nil {
			continue
		}
		results = append(results, &troublesearch.VectorHit{
			CaseID: h.CaseID,
			Score:  h.Score,
		})
	}
	return results, nil
}

func (a *SearchVectorIndex) Upsert(ctx context.Context, vectors []*troublesearch.IndexEntry) error {
	if a == nil || a.repo == nil {
		return troublesearch.ErrVectorDisabled
	}
	if len(vectors) == 0 {
		return nil
	}

	out := make([]*CaseVector, 0, len(vectors))
	for i := range vectors {
		v := vectors[i]
		if v == nil {
			continue
		}
		out = append(out, &CaseVector{
			CaseID:  v.CaseID,
			Product: v.Product,
			Vector:  v.Vector,
		})
	}
	return a.repo.UpsertCases(ctx, out)
}

func (a *SearchVectorIndex) Delete(ctx context.Context, caseIDs []string) error {
	if a == nil || a.repo == nil {
		return troublesearch.ErrVectorDisabled
	}
	return a.repo.DeleteCases(ctx, caseIDs)
}
