// Package tacit 提供暗黙知ノートの投稿・承認・マージ
package tacit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/domain/repository"
	"ops-portal-api/internal/infrastructure/messaging"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
)

// CorpusInvalidator 事例本文更新後に検索側の語彙コーパスを破棄させる
type CorpusInvalidator interface {
	InvalidateCorpus()
}

// Service 暗黙知ワークフロー。
// 投稿されたノートは承認を経て事例本文へマージされ、再インデックスされる。
type Service struct {
	notes    repository.TacitNoteRepository
	cases    repository.TroubleCaseRepository
	tx       repository.Transactor
	producer *messaging.Producer
	corpus   CorpusInvalidator
}

func NewService(
	notes repository.TacitNoteRepository,
	cases repository.TroubleCaseRepository,
	tx repository.Transactor,
	producer *messaging.Producer,
	corpus CorpusInvalidator,
) *Service {
	return &Service{
		notes:    notes,
		cases:    cases,
		tx:       tx,
		producer: producer,
		corpus:   corpus,
	}
}

// SubmitInput ノート投稿入力
type SubmitInput struct {
	CaseID   string
	Note     string
	Category string
	Author   string
}

// Submit 投稿されたノートを pending 状態で保存する
func (s *Service) Submit(ctx context.Context, in *SubmitInput) (*entity.TacitNote, error) {
	if in == nil || strings.TrimSpace(in.Note) == "" {
		return nil, errors.New(errors.CodeInvalidParam, "note is required")
	}
	caseID := strings.TrimSpace(in.CaseID)
	if caseID == "" {
		return nil, errors.New(errors.CodeInvalidParam, "case_id is required")
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	if c == nil {
		return nil, errors.ErrCaseNotFound
	}

	note := entity.NewTacitNote(caseID, strings.TrimSpace(in.Note), strings.TrimSpace(in.Category), strings.TrimSpace(in.Author))
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create tacit note: %w", err)
	}
	return note, nil
}

// List ノート一覧を返す。status が空なら全件。
func (s *Service) List(ctx context.Context, status entity.TacitNoteStatus) ([]*entity.TacitNote, error) {
	return s.notes.List(ctx, status)
}

// Approve 指定ノートを承認する。既に承認済みでも冪等に成功する。
func (s *Service) Approve(ctx context.Context, rowID int64, approver string) (*entity.TacitNote, error) {
	note, err := s.notes.GetByID(ctx, rowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tacit note: %w", err)
	}
	if note == nil {
		return nil, errors.New(errors.CodeNotFound, "tacit note not found")
	}

	note.Approve(strings.TrimSpace(approver))
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to update tacit note: %w", err)
	}
	return note, nil
}

// ApplyResult マージ結果
type ApplyResult struct {
	MergedCases int `json:"merged_cases"`
}

// Apply 承認済み・未マージのノートを case_id ごとにまとめ、
// 事例本文の tacit_notes へ追記する。ノートの消費と事例更新は
// 同一トランザクションで行い、マージ後に再インデックスを依頼する。
func (s *Service) Apply(ctx context.Context) (*ApplyResult, error) {
	pending, err := s.notes.ListApprovedUnmerged(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved notes: %w", err)
	}
	if len(pending) == 0 {
		return &ApplyResult{MergedCases: 0}, nil
	}

	// case_id ごとに投稿順で結合
	grouped := make(map[string][]string)
	noteIDs := make(map[string][]int64)
	for _, n := range pending {
		grouped[n.CaseID] = append(grouped[n.CaseID], n.Note)
		noteIDs[n.CaseID] = append(noteIDs[n.CaseID], n.ID)
	}
	caseIDs := make([]string, 0, len(grouped))
	for id := range grouped {
		caseIDs = append(caseIDs, id)
	}
	sort.Strings(caseIDs)

	merged := make([]string, 0, len(caseIDs))
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, caseID := range caseIDs {
			c, getErr := s.cases.GetByID(txCtx, caseID)
			if getErr != nil {
				return fmt.Errorf("failed to load case %s: %w", caseID, getErr)
			}
			if c == nil {
				// 事例が消えていてもノートは消費し、残留させない
				logger.FromContext(txCtx).Warn("tacit notes reference missing case", "case_id", caseID)
				if markErr := s.notes.MarkMerged(txCtx, noteIDs[caseID]); markErr != nil {
					return markErr
				}
				continue
			}

			c.MergeTacitNotes(strings.Join(grouped[caseID], "\n\n"))
			if updErr := s.cases.Update(txCtx, c); updErr != nil {
				return fmt.Errorf("failed to update case %s: %w", caseID, updErr)
			}
			if markErr := s.notes.MarkMerged(txCtx, noteIDs[caseID]); markErr != nil {
				return markErr
			}
			merged = append(merged, caseID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.corpus != nil {
		s.corpus.InvalidateCorpus()
	}

	// 再インデックスはストリーム経由で非同期に行う
	if s.producer != nil && len(merged) > 0 {
		_, pubErr := s.producer.PublishReindexJob(ctx, &messaging.ReindexJobMessage{
			JobID:   uuid.NewString(),
			CaseIDs: merged,
			Mode:    messaging.ReindexModeUpsert,
			Reason:  "tacit_apply",
		})
		if pubErr != nil {
			logger.FromContext(ctx).Warn("failed to publish reindex job", "error", pubErr)
		}
	}

	return &ApplyResult{MergedCases: len(merged)}, nil
}
