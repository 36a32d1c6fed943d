// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// exprIDLimit 过滤式に列挙できる事例 ID の上限。
// これを超える場合は全件検索してアプリ側で突き合わせる。
const exprIDLimit = 1024

// Repository 事例向量检索仓储
type Repository struct {
	client *Client
}

// NewRepository 创建向量检索仓储
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

// SearchParams 检索参数
type SearchParams struct {
	QueryVector []float32
	TopK        int
	AllowedIDs  []string
}

// CaseHit 检索命中
type CaseHit struct {
	CaseID string
	Score  float64
}

// EnsureCollection 确保事例集合・索引・分区可用（不存在则创建）。
// 約束：不会做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollection(ctx context.Context, dim int) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	exists, err := r.client.HasCollection(ctx)
	if err != nil {
		return err
	}
	if !exists {
		schema := TroubleCasesSchema(r.client.CollectionName(), dim)
		if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if err := r.CreateIndex(ctx); err != nil {
			return err
		}
	}

	collName := r.client.CollectionName()
	partition := r.client.PartitionName()
	if has, err := r.client.milvus.HasPartition(ctx, collName, partition); err != nil {
		return fmt.Errorf("failed to check partition: %w", err)
	} else if !has {
		if err := r.client.milvus.CreatePartition(ctx, collName, partition); err != nil {
			return fmt.Errorf("failed to create partition: %w", err)
		}
	}

	return r.client.LoadCollection(ctx)
}

// CreateIndex 创建 HNSW 索引
func (r *Repository) CreateIndex(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", r.client.CollectionName())))
	defer span.End()

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = r.client.milvus.CreateIndex(ctx, r.client.CollectionName(), "vector", idx, false)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// SearchCases 检索事例ベクトル。
// AllowedIDs が exprIDLimit 以下のときは Milvus の過滤式で絞り込み、
// それ以外は呼び出し側で突き合わせる前提の全件検索になる。
func (r *Repository) SearchCases(ctx context.Context, params *SearchParams) ([]*CaseHit, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchCases",
		trace.WithAttributes(
			attribute.Int("top_k", params.TopK),
			attribute.Int("allowed_ids", len(params.AllowedIDs)),
		))
	defer span.End()

	collName := r.client.CollectionName()
	partition := r.client.PartitionName()

	// 分区尚未创建时直接返回空结果
	if has, err := r.client.milvus.HasPartition(ctx, collName, partition); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to check partition: %w", err)
	} else if !has {
		return []*CaseHit{}, nil
	}

	filter := ""
	if n := len(params.AllowedIDs); n > 0 && n <= exprIDLimit {
		filter = "id in [" + quoteIDs(params.AllowedIDs) + "]"
	}

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		collName,
		[]string{partition},
		filter,
		[]string{"id"},
		[]entity.Vector{entity.FloatVector(params.QueryVector)},
		"vector",
		entity.COSINE,
		params.TopK,
		sp,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var hits []*CaseHit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hit := &CaseHit{
				// COSINE: distance=1-cos、類似度に戻す
				Score: 1 - float64(result.Scores[i]),
			}
			if idCol, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				hit.CaseID = idCol.Data()[i]
			}
			hits = append(hits, hit)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}

// UpsertCases 写入事例ベクトル（既存は削除して差し替え）
func (r *Repository) UpsertCases(ctx context.Context, vectors []*CaseVector) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.UpsertCases",
		trace.WithAttributes(attribute.Int("count", len(vectors))))
	defer span.End()

	if len(vectors) == 0 {
		return nil
	}

	collName := r.client.CollectionName()
	partition := r.client.PartitionName()

	has, _ := r.client.milvus.HasPartition(ctx, collName, partition)
	if !has {
		if err := r.client.milvus.CreatePartition(ctx, collName, partition); err != nil {
			return fmt.Errorf("failed to create partition: %w", err)
		}
	}

	ids := make([]string, len(vectors))
	prods := make([]string, len(vectors))
	vecs := make([][]float32, len(vectors))
	dim := 0
	for i, v := range vectors {
		ids[i] = v.CaseID
		prods[i] = v.Product
		vecs[i] = v.Vector
		if dim == 0 {
			dim = len(v.Vector)
		}
	}

	// 主キー重複は Insert でエラーにならず重复行になるため先に削除する
	if err := r.DeleteCases(ctx, ids); err != nil {
		return err
	}

	idCol := entity.NewColumnVarChar("id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", dim, vecs)
	productCol := entity.NewColumnVarChar("product", prods)

	_, err := r.client.milvus.Insert(ctx, collName, partition, idCol, vectorCol, productCol)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert case vectors: %w", err)
	}

	return nil
}

// DeleteCases 删除事例ベクトル
func (r *Repository) DeleteCases(ctx context.Context, caseIDs []string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.DeleteCases",
		trace.WithAttributes(attribute.Int("count", len(caseIDs))))
	defer span.End()

	if len(caseIDs) == 0 {
		return nil
	}

	collName := r.client.CollectionName()
	partition := r.client.PartitionName()

	if has, err := r.client.milvus.HasPartition(ctx, collName, partition); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check partition: %w", err)
	} else if !has {
		return nil
	}

	filter := "id in [" + quoteIDs(caseIDs) + "]"
	if err := r.client.milvus.Delete(ctx, collName, partition, filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete case vectors: %w", err)
	}
	return nil
}

// quoteIDs 生成過滤式用の ID リテラル列
func quoteIDs(ids []string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ReplaceAll(id, `"`, `\"`)
		parts = append(parts, `"`+id+`"`)
	}
	return strings.Join(parts, ", ")
}
