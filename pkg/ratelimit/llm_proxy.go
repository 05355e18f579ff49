package ratelimit

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const defaultQPM = 30

// RateLimitedChatModel 在调用前先从令牌桶取令牌。重试由调用方负责。
type RateLimitedChatModel struct {
	original model.BaseChatModel
	bucket   *TokenBucket
}

var _ model.BaseChatModel = (*RateLimitedChatModel)(nil)

// NewRateLimitedChatModel 包装模型。qpm 不大于 0 时使用默认值 30，
// 桶容量为 qpm 的一半，允许少量突发。
func NewRateLimitedChatModel(original model.BaseChatModel, qpm int) *RateLimitedChatModel {
	if qpm <= 0 {
		qpm = defaultQPM
	}
	return &RateLimitedChatModel{
		original: original,
		bucket:   NewTokenBucket(qpm, qpm/2),
	}
}

// Generate 限流后转发
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	if err := rl.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Generate(ctx, messages, options...)
}

// Stream 限流后转发
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := rl.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Stream(ctx, messages, options...)
}
