package eino

import "context"

type featureKey struct{}
type providerKey struct{}

// WithFeatureProvider 将機能名と LLM 提供商写入 context。
// callbacks 側でメトリクスのラベルと使用量記録に使う。
func WithFeatureProvider(ctx context.Context, feature, provider string) context.Context {
	ctx = context.WithValue(ctx, featureKey{}, feature)
	return context.WithValue(ctx, providerKey{}, provider)
}

// FeatureFromContext 获取機能名
func FeatureFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(featureKey{}).(string); ok {
		return v
	}
	return ""
}

// ProviderFromContext 获取 LLM 提供商
func ProviderFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(providerKey{}).(string); ok {
		return v
	}
	return ""
}
