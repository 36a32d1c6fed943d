package eino

import (
	"context"
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"

	"ops-portal-api/internal/domain/entity"
)

// UsageSink 接收 LLM 使用事件
//
// 实现方负责持久化策略（通常为异步写入），
// Record 不允许阻塞也不允许失败影响调用链。
type UsageSink interface {
	Record(ctx context.Context, evt *entity.LLMUsageEvent)
}

var initOnce sync.Once

// Init 注册 Eino 全局 callbacks（进程级一次）。
// sink が nil の場合は指標と追踪のみ記録する。
func Init(sink UsageSink) {
	initOnce.Do(func() {
		handler := cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler(sink)).
			Handler()
		einocallbacks.AppendGlobalHandlers(handler)
	})
}
