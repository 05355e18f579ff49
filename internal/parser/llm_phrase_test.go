package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// MockChatModel 按顺序返回预设的错误，之后返回固定响应
type MockChatModel struct {
	response  string
	errs      []error
	CallCount int
	lastInput []*schema.Message
}

func (m *MockChatModel) Generate(_ context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.CallCount++
	m.lastInput = messages
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	return schema.AssistantMessage(m.response, nil), nil
}

func (m *MockChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.response, nil)}), nil
}

func TestLLMPhraseExtractor_ParsesFencedJSON(t *testing.T) {
	mock := &MockChatModel{response: "结果如下：\n```json\n{\"phrases\": [\"Machine Learning\", \" Go \", \"machine learning\", \"\"]}\n```"}
	extractor := NewLLMPhraseExtractor(mock)

	phrases, err := extractor.PhraseCandidates(context.Background(), "Machine Learning, Go")
	require.NoError(t, err)
	assert.Equal(t, []string{"Machine Learning", "Go"}, phrases, "应去空白并忽略大小写去重")

	require.Len(t, mock.lastInput, 2)
	assert.Equal(t, schema.System, mock.lastInput[0].Role)
	assert.Equal(t, "Machine Learning, Go", mock.lastInput[1].Content)
}

func TestLLMPhraseExtractor_RetriesTransientErrors(t *testing.T) {
	mock := &MockChatModel{
		response: `{"phrases": ["Kubernetes"]}`,
		errs:     []error{errors.New("read: connection reset by peer")},
	}
	extractor := NewLLMPhraseExtractor(mock, WithPhraseRetry(2, time.Millisecond))

	phrases, err := extractor.PhraseCandidates(context.Background(), "Kubernetes")
	require.NoError(t, err)
	assert.Equal(t, []string{"Kubernetes"}, phrases)
	assert.Equal(t, 2, mock.CallCount, "可重试错误应触发一次重试")
}

func TestLLMPhraseExtractor_Failures(t *testing.T) {
	t.Run("不可重试错误", func(t *testing.T) {
		mock := &MockChatModel{errs: []error{errors.New("invalid api key")}}
		extractor := NewLLMPhraseExtractor(mock, WithPhraseRetry(3, time.Millisecond))
		_, err := extractor.PhraseCandidates(context.Background(), "Go")
		require.Error(t, err)
		assert.Equal(t, 1, mock.CallCount)
	})

	t.Run("响应中没有JSON", func(t *testing.T) {
		mock := &MockChatModel{response: "抱歉，我无法处理"}
		_, err := NewLLMPhraseExtractor(mock).PhraseCandidates(context.Background(), "Go")
		assert.ErrorIs(t, err, ErrEmptyLLMResponse)
	})

	t.Run("空文本不调用模型", func(t *testing.T) {
		mock := &MockChatModel{}
		phrases, err := NewLLMPhraseExtractor(mock).PhraseCandidates(context.Background(), "  \n")
		require.NoError(t, err)
		assert.Empty(t, phrases)
		assert.Equal(t, 0, mock.CallCount)
	})
}

func TestLLMPhraseExtractor_RecordsFailureOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	mock := &MockChatModel{errs: []error{errors.New("invalid api key")}}
	_, err := NewLLMPhraseExtractor(mock, WithPhraseRetry(0, time.Millisecond)).PhraseCandidates(context.Background(), "Go")
	require.Error(t, err)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "parser.llm_phrases", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	var errorType string
	for _, kv := range ended[0].Attributes() {
		if kv.Key == "error.type" {
			errorType = kv.Value.AsString()
		}
	}
	assert.Equal(t, "llm", errorType, "模型调用最终失败应记为 llm 错误")

	_, err = NewLLMPhraseExtractor(&MockChatModel{response: `{"phrases": ["Go"]}`}).PhraseCandidates(context.Background(), "Go")
	require.NoError(t, err)
	ended = recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Unset, ended[1].Status().Code, "成功调用不应标记为失败")
}

func TestLLMPhraseExtractor_TruncatesInput(t *testing.T) {
	mock := &MockChatModel{response: `{"phrases": []}`}
	extractor := NewLLMPhraseExtractor(mock, WithPhraseMaxInput(3))
	_, err := extractor.PhraseCandidates(context.Background(), "技能清单")
	require.NoError(t, err)
	assert.Equal(t, "技能清", mock.lastInput[1].Content)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractJSON(`noise {"a": {"b": 1}} tail }`))
	assert.Equal(t, `{"x": 1}`, extractJSON("```\n{\"x\": 1}\n```"))
	assert.Equal(t, "", extractJSON("no braces"))
	assert.Equal(t, "", extractJSON("{ unterminated"))
}
