// Package usage 提供 LLM 使用事件的异步记录器
package usage

import (
	"context"
	"sync"
	"time"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/domain/repository"
	"ops-portal-api/pkg/logger"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// Recorder 异步写入 LLM 使用事件
//
// Record 只做非阻塞入队，持久化由后台协程完成。
// 队列满时直接丢弃事件并记录警告，绝不阻塞调用方。
type Recorder struct {
	repo  repository.LLMUsageEventRepository
	queue chan *entity.LLMUsageEvent

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRecorder 创建使用事件记录器并启动后台写入协程
func NewRecorder(repo repository.LLMUsageEventRepository, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	r := &Recorder{
		repo:   repo,
		queue:  make(chan *entity.LLMUsageEvent, queueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go r.run()
	return r
}

// Record 入队一条使用事件，队列满时丢弃
func (r *Recorder) Record(ctx context.Context, evt *entity.LLMUsageEvent) {
	if r == nil || evt == nil {
		return
	}
	if evt.TokensPrompt < 0 || evt.TokensCompletion < 0 {
		return
	}

	select {
	case r.queue <- evt:
	default:
		logger.Warn(ctx, "llm usage event dropped: queue full",
			"feature", evt.Feature,
			"model", evt.Model,
		)
	}
}

// Close 停止记录器并写完队列中剩余的事件
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	<-r.doneCh
}

// run 后台写入循环
func (r *Recorder) run() {
	defer close(r.doneCh)

	for {
		select {
		case evt := <-r.queue:
			r.write(evt)
		case <-r.stopCh:
			r.drain()
			return
		}
	}
}

// drain 清空队列中已入队的事件
func (r *Recorder) drain() {
	for {
		select {
		case evt := <-r.queue:
			r.write(evt)
		default:
			return
		}
	}
}

func (r *Recorder) write(evt *entity.LLMUsageEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, evt); err != nil {
		logger.Error(ctx, "failed to persist llm usage event", err,
			"feature", evt.Feature,
			"provider", evt.Provider,
			"model", evt.Model,
		)
	}
}
