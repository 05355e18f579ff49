package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingClient struct {
	lastReq openai.ChatCompletionRequest
	resp    openai.ChatCompletionResponse
	err     error
}

func (c *capturingClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.lastReq = req
	return c.resp, c.err
}

func TestNewOpenAIChatModel_RequiresKey(t *testing.T) {
	_, err := NewOpenAIChatModel("  ", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	m, err := NewOpenAIChatModel("sk-test", "http://example.invalid/v1/", WithModelName(""))
	require.NoError(t, err)
	assert.Equal(t, defaultModelName, m.ModelName(), "空模型名应保留默认值")
}

func TestOpenAIChatModel_GenerateMapsMessages(t *testing.T) {
	client := &capturingClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: `{"phrases":["Go"]}`},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}
	m, err := NewOpenAIChatModel("sk-test", "", WithClient(client), WithModelName("gpt-4o-mini"), WithTemperature(0.1), WithMaxTokens(256))
	require.NoError(t, err)

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		nil,
		schema.UserMessage("Go, Rust"),
	})
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, out.Role)
	assert.Equal(t, `{"phrases":["Go"]}`, out.Content)
	require.NotNil(t, out.ResponseMeta)
	assert.Equal(t, 15, out.ResponseMeta.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o-mini", client.lastReq.Model)
	require.Len(t, client.lastReq.Messages, 2, "nil 消息应被跳过")
	assert.Equal(t, openai.ChatMessageRoleSystem, client.lastReq.Messages[0].Role)
	assert.Equal(t, "Go, Rust", client.lastReq.Messages[1].Content)
	assert.InDelta(t, 0.1, client.lastReq.Temperature, 1e-6)
	assert.Equal(t, 256, client.lastReq.MaxTokens)
}

func TestOpenAIChatModel_Errors(t *testing.T) {
	m, err := NewOpenAIChatModel("sk-test", "", WithClient(&capturingClient{}))
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	assert.ErrorIs(t, err, ErrNoChoices)

	boom := errors.New("connection refused")
	m, err = NewOpenAIChatModel("sk-test", "", WithClient(&capturingClient{err: boom}))
	require.NoError(t, err)
	_, err = m.Stream(context.Background(), []*schema.Message{schema.UserMessage("x")})
	assert.ErrorIs(t, err, boom)
}

// 通过 httptest 模拟兼容模式服务，验证真实客户端的请求路径和鉴权头
func TestOpenAIChatModel_HTTPServer(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "pong"},
			}},
		})
	}))
	defer server.Close()

	m, err := NewOpenAIChatModel("sk-test", server.URL+"/v1")
	require.NoError(t, err)

	stream, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("ping")})
	require.NoError(t, err)
	defer stream.Close()
	msg, err := stream.Recv()
	require.NoError(t, err)

	assert.Equal(t, "pong", msg.Content)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/v1/chat/completions", gotPath)
}
