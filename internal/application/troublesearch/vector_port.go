package troublesearch

import "context"

// VectorIndex 定义应用层对“向量存储/检索”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error

	// Search 检索 topK 件。allowedIDs 非空时实现側で絞り込むか、
	// 絞り込めない場合は呼び出し側の突き合わせに任せてよい。
	Search(ctx context.Context, queryVector []float32, topK int, allowedIDs []string) ([]*VectorHit, error)

	// Upsert 写入事例ベクトル
	Upsert(ctx context.Context, vectors []*IndexEntry) error

	// Delete 删除事例ベクトル
	Delete(ctx context.Context, caseIDs []string) error
}

// VectorHit 向量検索命中。
type VectorHit struct {
	CaseID string
	Score  float64
}

// IndexEntry 向量索引登録項目。
type IndexEntry struct {
	CaseID  string
	Product string
	Vector  []float32
}
