package troublesearch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/domain/repository"
	"ops-portal-api/internal/infrastructure/messaging"
	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/metrics"
	"ops-portal-api/pkg/utils"
)

// embedBatchSize 埋め込みゲートウェイの一回あたり上限
const embedBatchSize = 32

// Indexer 事例の取込と向量インデックス更新。
// CSV バッチ取込と再インデックスストリームの両方から使われる。
type Indexer struct {
	cases    repository.TroubleCaseRepository
	vector   VectorIndex
	embedder embedding.Embedder
}

func NewIndexer(cases repository.TroubleCaseRepository, vector VectorIndex, embedder embedding.Embedder) *Indexer {
	return &Indexer{
		cases:    cases,
		vector:   vector,
		embedder: embedder,
	}
}

// ImportResult CSV 取込結果
type ImportResult struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportCSV 事例 CSV を取り込み、Postgres へ upsert して向量を再構築する。
// 不正な行は記録してスキップし、処理全体は止めない。
func (ix *Indexer) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	log := logger.FromContext(ctx)

	records, header, err := readCasesCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases csv: %w", err)
	}

	result := &ImportResult{Total: len(records)}
	cases := make([]*entity.TroubleCase, 0, len(records))
	for i, record := range records {
		c, rowErr := caseFromRow(header, record)
		if rowErr != nil {
			log.Warn("skipped malformed csv row", "row", i+2, "error", rowErr)
			result.Skipped++
			continue
		}
		cases = append(cases, c)
	}
	if len(cases) == 0 {
		return result, nil
	}

	if err := ix.cases.Upsert(ctx, cases); err != nil {
		metrics.IndexerCasesTotal.WithLabelValues("batch", "error").Add(float64(len(cases)))
		return nil, fmt.Errorf("failed to upsert cases: %w", err)
	}

	if err := ix.index(ctx, cases); err != nil {
		metrics.IndexerCasesTotal.WithLabelValues("batch", "error").Add(float64(len(cases)))
		return nil, err
	}

	result.Imported = len(cases)
	metrics.IndexerCasesTotal.WithLabelValues("batch", "success").Add(float64(len(cases)))
	log.Info("cases imported", "total", result.Total, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

// ReindexCases 指定事例を再埋め込みして向量を差し替える
func (ix *Indexer) ReindexCases(ctx context.Context, caseIDs []string) error {
	if len(caseIDs) == 0 {
		return nil
	}
	cases, err := ix.cases.ListByIDs(ctx, caseIDs)
	if err != nil {
		return fmt.Errorf("failed to load cases: %w", err)
	}

	// DB に存在しない事例は向量側からも消す
	found := make(map[string]struct{}, len(cases))
	for _, c := range cases {
		found[c.ID] = struct{}{}
	}
	var missing []string
	for _, id := range caseIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		if err := ix.vector.Delete(ctx, missing); err != nil {
			return fmt.Errorf("failed to delete stale vectors: %w", err)
		}
	}

	if err := ix.index(ctx, cases); err != nil {
		metrics.IndexerCasesTotal.WithLabelValues("stream", "error").Add(float64(len(cases)))
		return err
	}
	metrics.IndexerCasesTotal.WithLabelValues("stream", "success").Add(float64(len(cases)))
	return nil
}

// ReindexAll 全事例の向量を再構築する
func (ix *Indexer) ReindexAll(ctx context.Context) error {
	cases, err := ix.cases.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cases: %w", err)
	}
	if err := ix.index(ctx, cases); err != nil {
		metrics.IndexerCasesTotal.WithLabelValues("batch", "error").Add(float64(len(cases)))
		return err
	}
	metrics.IndexerCasesTotal.WithLabelValues("batch", "success").Add(float64(len(cases)))
	return nil
}

// HandleReindexMessage 再インデックスストリームのハンドラ
func (ix *Indexer) HandleReindexMessage(ctx context.Context, msg *messaging.Message) error {
	var job messaging.ReindexJobMessage
	if err := msg.UnmarshalPayload(&job); err != nil {
		return fmt.Errorf("invalid reindex payload: %w", err)
	}

	switch job.Mode {
	case messaging.ReindexModeFull:
		return ix.ReindexAll(ctx)
	default:
		return ix.ReindexCases(ctx, job.CaseIDs)
	}
}

// index 事例を埋め込み、向量ストアへ upsert する
func (ix *Indexer) index(ctx context.Context, cases []*entity.TroubleCase) error {
	if len(cases) == 0 {
		return nil
	}
	if ix.embedder == nil || ix.vector == nil {
		return ErrVectorDisabled
	}

	for offset := 0; offset < len(cases); offset += embedBatchSize {
		end := offset + embedBatchSize
		if end > len(cases) {
			end = len(cases)
		}
		batch := cases[offset:end]

		texts := make([]string, 0, len(batch))
		for _, c := range batch {
			texts = append(texts, c.EmbeddingText())
		}
		vectors, err := ix.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed cases: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d want %d", len(vectors), len(batch))
		}

		entries := make([]*IndexEntry, 0, len(batch))
		for i, c := range batch {
			vec := make([]float32, 0, len(vectors[i]))
			for _, x := range vectors[i] {
				vec = append(vec, float32(x))
			}
			entries = append(entries, &IndexEntry{
				CaseID:  c.ID,
				Product: c.Product,
				Vector:  vec,
			})
		}
		if err := ix.vector.Upsert(ctx, entries); err != nil {
			return fmt.Errorf("failed to upsert vectors: %w", err)
		}
	}
	return nil
}

// readCasesCSV CSV を読み込む。UTF-8 でなければ Shift_JIS として解釈する。
func readCasesCSV(r io.Reader) ([][]string, map[string]int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(strings.NewReader(utils.DecodeJapaneseText(data)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("csv is empty")
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.TrimSpace(name)] = i
	}
	if _, ok := header["id"]; !ok {
		return nil, nil, fmt.Errorf("csv has no id column")
	}
	return rows[1:], header, nil
}

// caseFromRow ヘッダ位置に基づいて一行を事例へ変換する
func caseFromRow(header map[string]int, record []string) (*entity.TroubleCase, error) {
	field := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	id := field("id")
	if id == "" {
		return nil, fmt.Errorf("missing id")
	}
	title := field("title")
	if title == "" {
		return nil, fmt.Errorf("missing title")
	}

	c := &entity.TroubleCase{
		ID:             id,
		OccurredOn:     field("date"),
		Title:          title,
		Summary:        field("summary"),
		RootCause:      field("root_cause"),
		Countermeasure: field("countermeasure"),
		Product:        field("product"),
		Client:         field("client"),
		Tags:           entity.SplitTags(field("tags")),
		Severity:       field("severity"),
		Owner:          field("owner"),
		TacitNotes:     field("tacit_notes"),
	}
	if v := field("lead_time_hours"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lead_time_hours %q", v)
		}
		c.LeadTimeHours = f
	}
	c.Normalize()
	return c, nil
}
