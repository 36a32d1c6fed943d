// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionTroubleCases 事例ベクトル集合
	CollectionTroubleCases = "trouble_cases"

	// DefaultPartition 事例分区
	DefaultPartition = "cases"

	// VectorDimension 向量维度
	VectorDimension = 1024
)

// TroubleCasesSchema 事例 Collection Schema。
// ベクトルは事例 1 件につき 1 本（主キー = 事例 ID）。
func TroubleCasesSchema(collectionName string, dim int) *entity.Schema {
	if dim <= 0 {
		dim = VectorDimension
	}
	return &entity.Schema{
		CollectionName: collectionName,
		Description:    "Trouble case embeddings for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dim),
				},
			},
			{
				Name:     "product",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
		},
	}
}

// CaseVector 事例ベクトルデータ
type CaseVector struct {
	CaseID  string    `json:"case_id"`
	Product string    `json:"product"`
	Vector  []float32 `json:"vector"`
}
