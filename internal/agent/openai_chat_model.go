package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

const defaultModelName = "qwen-plus"

// ErrMissingAPIKey 未配置 API 密钥
var ErrMissingAPIKey = errors.New("API 密钥不能为空")

// ErrNoChoices 模型响应中没有候选结果
var ErrNoChoices = errors.New("模型响应中没有 choices")

// ChatCompletionClient 与 OpenAI 兼容接口交互的最小集合，*openai.Client 满足该接口
type ChatCompletionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIChatModel 把 OpenAI 兼容的 chat completion 接口适配为 eino 的 BaseChatModel，
// DashScope、DeepSeek 等兼容模式服务都可以直接使用。
type OpenAIChatModel struct {
	client      ChatCompletionClient
	modelName   string
	temperature float32
	maxTokens   int
	logger      *log.Logger
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)

// ChatModelOption 配置选项
type ChatModelOption func(*OpenAIChatModel)

// WithModelName 指定模型名
func WithModelName(name string) ChatModelOption {
	return func(m *OpenAIChatModel) {
		if strings.TrimSpace(name) != "" {
			m.modelName = name
		}
	}
}

// WithTemperature 指定采样温度
func WithTemperature(t float32) ChatModelOption {
	return func(m *OpenAIChatModel) {
		m.temperature = t
	}
}

// WithMaxTokens 限制输出 token 数，0 表示不限制
func WithMaxTokens(n int) ChatModelOption {
	return func(m *OpenAIChatModel) {
		if n >= 0 {
			m.maxTokens = n
		}
	}
}

// WithModelLogger 配置日志记录器
func WithModelLogger(logger *log.Logger) ChatModelOption {
	return func(m *OpenAIChatModel) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClient 替换底层客户端，主要用于测试
func WithClient(client ChatCompletionClient) ChatModelOption {
	return func(m *OpenAIChatModel) {
		if client != nil {
			m.client = client
		}
	}
}

// NewOpenAIChatModel 创建聊天模型。baseURL 为空时使用 OpenAI 官方地址。
func NewOpenAIChatModel(apiKey, baseURL string, opts ...ChatModelOption) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	m := &OpenAIChatModel{
		client:    openai.NewClientWithConfig(cfg),
		modelName: defaultModelName,
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger.Printf("LLM 客户端就绪，模型: %s", m.modelName)
	return m, nil
}

// ModelName 当前使用的模型名
func (m *OpenAIChatModel) ModelName() string { return m.modelName }

// Generate 发送一次非流式请求
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.modelName,
		Messages:    toOpenAIMessages(input),
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("调用模型 %s 失败: %w", m.modelName, err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := resp.Choices[0]
	m.logger.Printf("模型响应: finish_reason=%s, tokens=%d", choice.FinishReason, resp.Usage.TotalTokens)

	out := schema.AssistantMessage(choice.Message.Content, nil)
	out.ResponseMeta = &schema.ResponseMeta{
		FinishReason: string(choice.FinishReason),
		Usage: &schema.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	return out, nil
}

// Stream 以单帧流的形式返回 Generate 的结果
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return out
}
