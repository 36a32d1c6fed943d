package troublesearch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/domain/repository"
	"ops-portal-api/internal/infrastructure/messaging"
	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/metrics"
)

// FeedbackInput フィードバック登録入力
type FeedbackInput struct {
	Query      string
	CaseID     string
	Helpful    bool
	SolveHours *float64
	Extra      map[string]any
	EmployeeID string
}

// FeedbackService 検索フィードバックの登録と集計
type FeedbackService struct {
	repo     repository.SearchFeedbackRepository
	producer *messaging.Producer
}

func NewFeedbackService(repo repository.SearchFeedbackRepository, producer *messaging.Producer) *FeedbackService {
	return &FeedbackService{
		repo:     repo,
		producer: producer,
	}
}

// Record フィードバックを保存する
func (s *FeedbackService) Record(ctx context.Context, in *FeedbackInput) error {
	if in == nil {
		return fmt.Errorf("feedback input is nil")
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return ErrEmptyQuery
	}

	fb := entity.NewSearchFeedback(query, strings.TrimSpace(in.CaseID), in.Helpful)
	fb.SolveHours = in.SolveHours
	fb.Extra = in.Extra

	if err := s.repo.Create(ctx, fb); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	metrics.SearchFeedbackTotal.WithLabelValues(strconv.FormatBool(in.Helpful)).Inc()

	// 監査ログは失敗しても本処理を止めない
	if s.producer != nil {
		_, err := s.producer.PublishAuditLog(ctx, &messaging.AuditLogMessage{
			EmployeeID:   in.EmployeeID,
			Action:       "feedback.create",
			ResourceType: "search_feedback",
			ResourceID:   fb.CaseID,
			Metadata: map[string]interface{}{
				"helpful": in.Helpful,
			},
		})
		if err != nil {
			logger.FromContext(ctx).Warn("failed to publish audit log", "error", err)
		}
	}

	return nil
}

// Stats フィードバック集計を返す
func (s *FeedbackService) Stats(ctx context.Context) (*entity.FeedbackStats, error) {
	return s.repo.Stats(ctx)
}
