package ratelimit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_AllowAndRefill(t *testing.T) {
	tb := NewTokenBucket(60, 2)
	current := time.Unix(1_700_000_000, 0)
	tb.now = func() time.Time { return current }
	tb.lastRefill = current

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "容量耗尽后应拒绝")

	current = current.Add(time.Second)
	assert.True(t, tb.Allow(), "每秒补充一个令牌")
	assert.False(t, tb.Allow())

	current = current.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "补充不应超过容量")
}

func TestNewTokenBucket_Defaults(t *testing.T) {
	tb := NewTokenBucket(1, 0)
	assert.Equal(t, 1.0, tb.capacity, "容量至少为1")

	tb = NewTokenBucket(40, 0)
	assert.Equal(t, 20.0, tb.capacity)
}

func TestTokenBucket_WaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	require.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type countingModel struct{ calls atomic.Int32 }

func (m *countingModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	m.calls.Add(1)
	return schema.AssistantMessage("ok", nil), nil
}

func (m *countingModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.calls.Add(1)
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("ok", nil)}), nil
}

func TestRateLimitedChatModel(t *testing.T) {
	inner := &countingModel{}
	limited := NewRateLimitedChatModel(inner, 2)

	msg, err := limited.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = limited.Stream(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled, "令牌耗尽且上下文取消时不应调用模型")
	assert.Equal(t, int32(1), inner.calls.Load())
}
