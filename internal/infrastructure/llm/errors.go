package llm

import (
	"context"
	stderrors "errors"
	"strings"

	"ops-portal-api/pkg/errors"
)

// ClassifyError Azure OpenAI / OpenAI 互換エンドポイントの失敗を AppError に正規化する。
// SDK のエラー型はプロバイダごとに揺れるため、メッセージの部分一致で判定する。
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodeLLMTimeout, "Azure OpenAI timeout")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deploymentnotfound"), strings.Contains(msg, "status code: 404"), strings.Contains(msg, "resource not found"):
		return errors.Wrap(err, errors.CodeDeploymentWrong, "Azure OpenAI resource not found")
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "status code: 429"), strings.Contains(msg, "too many requests"):
		return errors.Wrap(err, errors.CodeLLMRateLimited, "Azure OpenAI rate limit")
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return errors.Wrap(err, errors.CodeLLMTimeout, "Azure OpenAI timeout")
	case strings.Contains(msg, "status code: 400"), strings.Contains(msg, "bad request"):
		return errors.Wrap(err, errors.CodeInvalidParam, "Azure OpenAI bad request")
	default:
		return errors.Wrap(err, errors.CodeLLMCallFailed, "Azure OpenAI upstream error")
	}
}

// IsResponseFormatUnsupported response_format 非対応プロバイダの失敗かどうか。
// 真のとき呼び出し側は JSON モードを外して再試行する。
func IsResponseFormatUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_object"):
		return true
	case strings.Contains(msg, "json_schema"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "invalid") && strings.Contains(msg, "response"):
		return true
	default:
		return false
	}
}
