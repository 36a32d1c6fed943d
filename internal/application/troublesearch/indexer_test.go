package troublesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"ops-portal-api/internal/infrastructure/messaging"
)

const casesCSVHeader = "id,date,title,summary,root_cause,countermeasure,product,client,tags,severity,owner,lead_time_hours,tacit_notes\n"

func TestImportCSV(t *testing.T) {
	csvText := casesCSVHeader +
		"T-001,2024-05-10,入庫遅延,入庫処理が遅延,夜間バッチ滞留,再実行手順を整備,WMS,山田商事,\"入庫,バッチ\",高,田中,12.5,リランは 2 回まで\n" +
		"T-002,2024/06/01,出庫数不一致,,,,TMS,,,中,,,\n" +
		",2024-05-10,ID なし行,,,,,,,,,,\n" +
		"T-004,2024-05-10,リードタイム不正,,,,,,,,,abc,\n"

	repo := newFakeCaseRepo()
	vector := &fakeVectorIndex{}
	ix := NewIndexer(repo, vector, &fakeEmbedder{})

	res, err := ix.ImportCSV(context.Background(), strings.NewReader(csvText))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Skipped)

	c1 := repo.cases["T-001"]
	require.NotNil(t, c1)
	assert.Equal(t, "入庫遅延", c1.Title)
	assert.Equal(t, []string{"入庫", "バッチ"}, []string(c1.Tags))
	assert.Equal(t, 12.5, c1.LeadTimeHours)
	// 派生列が再計算される
	require.NotNil(t, c1.OccurredAt)
	assert.Equal(t, "2024-05-10", c1.OccurredAt.Format("2006-01-02"))
	require.NotNil(t, c1.SeverityLevel)
	assert.Equal(t, 3.0, *c1.SeverityLevel)

	// 向量側にも同じ事例が登録される
	require.Len(t, vector.upserted, 2)
	assert.Equal(t, "T-001", vector.upserted[0].CaseID)
	assert.Equal(t, "WMS", vector.upserted[0].Product)
	assert.Len(t, vector.upserted[0].Vector, 3)
}

func TestImportCSV_ShiftJIS(t *testing.T) {
	csvText := casesCSVHeader +
		"T-010,2024-01-15,文字コード混在,社内の古い帳票,,,基幹,,,低,,,\n"
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), csvText)
	require.NoError(t, err)

	repo := newFakeCaseRepo()
	ix := NewIndexer(repo, &fakeVectorIndex{}, &fakeEmbedder{})

	res, err := ix.ImportCSV(context.Background(), strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	require.NotNil(t, repo.cases["T-010"])
	assert.Equal(t, "文字コード混在", repo.cases["T-010"].Title)
}

func TestImportCSV_MissingIDColumn(t *testing.T) {
	ix := NewIndexer(newFakeCaseRepo(), &fakeVectorIndex{}, &fakeEmbedder{})

	_, err := ix.ImportCSV(context.Background(), strings.NewReader("title,summary\nだけ,の行\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id column")
}

func TestImportCSV_VectorDisabled(t *testing.T) {
	ix := NewIndexer(newFakeCaseRepo(), nil, nil)

	csvText := casesCSVHeader + "T-001,2024-05-10,事例,,,,,,,,,,\n"
	_, err := ix.ImportCSV(context.Background(), strings.NewReader(csvText))
	assert.ErrorIs(t, err, ErrVectorDisabled)
}

func TestImportCSV_Batching(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(casesCSVHeader)
	for i := 0; i < 70; i++ {
		fmt.Fprintf(&sb, "T-%03d,2024-05-10,事例 %d,,,,,,,,,,\n", i, i)
	}

	embedder := &fakeEmbedder{}
	vector := &fakeVectorIndex{}
	ix := NewIndexer(newFakeCaseRepo(), vector, embedder)

	res, err := ix.ImportCSV(context.Background(), strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, 70, res.Imported)
	// 32 件ずつ 3 バッチで埋め込む
	assert.Equal(t, 3, embedder.calls)
	assert.Len(t, vector.upserted, 70)
}

func TestReindexCases_DeletesStale(t *testing.T) {
	repo := newFakeCaseRepo(testCase("c1", "現存事例", ""))
	vector := &fakeVectorIndex{}
	ix := NewIndexer(repo, vector, &fakeEmbedder{})

	require.NoError(t, ix.ReindexCases(context.Background(), []string{"c1", "gone"}))

	// DB に無い事例は向量側から削除される
	assert.Equal(t, []string{"gone"}, vector.deleted)
	require.Len(t, vector.upserted, 1)
	assert.Equal(t, "c1", vector.upserted[0].CaseID)
}

func TestReindexCases_Empty(t *testing.T) {
	vector := &fakeVectorIndex{}
	ix := NewIndexer(newFakeCaseRepo(), vector, &fakeEmbedder{})

	require.NoError(t, ix.ReindexCases(context.Background(), nil))
	assert.Empty(t, vector.upserted)
	assert.Empty(t, vector.deleted)
}

func TestHandleReindexMessage(t *testing.T) {
	repo := newFakeCaseRepo(testCase("c1", "事例 一", ""), testCase("c2", "事例 二", ""))
	vector := &fakeVectorIndex{}
	ix := NewIndexer(repo, vector, &fakeEmbedder{})

	msg, err := messaging.NewMessage("job-1", "case_reindex", "E001", &messaging.ReindexJobMessage{
		JobID:   "job-1",
		CaseIDs: []string{"c1"},
		Mode:    messaging.ReindexModeUpsert,
	})
	require.NoError(t, err)

	require.NoError(t, ix.HandleReindexMessage(context.Background(), msg))
	require.Len(t, vector.upserted, 1)
	assert.Equal(t, "c1", vector.upserted[0].CaseID)
}

func TestHandleReindexMessage_FullMode(t *testing.T) {
	repo := newFakeCaseRepo(testCase("c1", "事例 一", ""), testCase("c2", "事例 二", ""))
	vector := &fakeVectorIndex{}
	ix := NewIndexer(repo, vector, &fakeEmbedder{})

	msg, err := messaging.NewMessage("job-2", "case_reindex", "", &messaging.ReindexJobMessage{
		JobID: "job-2",
		Mode:  messaging.ReindexModeFull,
	})
	require.NoError(t, err)

	require.NoError(t, ix.HandleReindexMessage(context.Background(), msg))
	assert.Len(t, vector.upserted, 2)
	assert.Equal(t, 1, repo.listAllCalls)
}

func TestHandleReindexMessage_BadPayload(t *testing.T) {
	ix := NewIndexer(newFakeCaseRepo(), &fakeVectorIndex{}, &fakeEmbedder{})

	msg := &messaging.Message{ID: "x", Type: "case_reindex", Payload: json.RawMessage(`{broken`)}
	err := ix.HandleReindexMessage(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reindex payload")
}
