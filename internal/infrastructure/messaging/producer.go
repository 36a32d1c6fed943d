// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishReindexJob 发布再インデックスジョブ
func (p *Producer) PublishReindexJob(ctx context.Context, job *ReindexJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, "case_reindex", job.RequestedBy, job)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("mode", job.Mode)
	if job.Reason != "" {
		msg.SetMetadata("reason", job.Reason)
	}

	return p.Publish(ctx, StreamReindex, msg)
}

// PublishAuditLog 发布审计日志
func (p *Producer) PublishAuditLog(ctx context.Context, log *AuditLogMessage) (string, error) {
	msg, err := NewMessage(log.RequestID, "audit", log.EmployeeID, log)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamAuditLog, msg)
}

// ReindexJobMessage 再インデックスジョブ消息
type ReindexJobMessage struct {
	JobID       string   `json:"job_id"`
	CaseIDs     []string `json:"case_ids,omitempty"`
	Mode        string   `json:"mode"`
	Reason      string   `json:"reason,omitempty"`
	RequestedBy string   `json:"requested_by,omitempty"`
}

// ReindexModeUpsert 增量更新指定事例
const ReindexModeUpsert = "upsert"

// ReindexModeFull 全量重建索引
const ReindexModeFull = "full"

// AuditLogMessage 审计日志消息
type AuditLogMessage struct {
	EmployeeID   string                 `json:"employee_id,omitempty"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	RequestID    string                 `json:"request_id"`
	TraceID      string                 `json:"trace_id,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
