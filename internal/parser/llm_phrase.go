package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"resume-parser-go/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "parser"

const phrasePrompt = `你是一个简历技能短语抽取器。阅读用户给出的简历技能章节，列出其中出现的技能、工具、编程语言、框架和方法论名词短语。

要求：
- 只输出原文中出现的短语，保持原文大小写，不要翻译或改写。
- 每个短语不超过四个单词，不要包含年份或数字。
- 不要输出整句话、职位名称或公司名称。
- 严格输出如下JSON，不要包含解释性文字或Markdown标记：
{"phrases": ["string"]}`

// ErrEmptyLLMResponse LLM 返回内容中找不到 JSON
var ErrEmptyLLMResponse = errors.New("LLM 响应中没有可解析的 JSON")

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// LLMPhraseExtractor 用聊天模型从技能章节中提取名词短语候选
type LLMPhraseExtractor struct {
	llm         model.BaseChatModel
	maxRetries  int
	retryDelay  time.Duration
	callTimeout time.Duration
	maxInput    int
	logger      *log.Logger
}

// LLMPhraseOption LLM 短语提取器配置选项
type LLMPhraseOption func(*LLMPhraseExtractor)

// WithPhraseRetry 设置最大重试次数和首次退避时间
func WithPhraseRetry(maxRetries int, delay time.Duration) LLMPhraseOption {
	return func(e *LLMPhraseExtractor) {
		if maxRetries >= 0 {
			e.maxRetries = maxRetries
		}
		if delay > 0 {
			e.retryDelay = delay
		}
	}
}

// WithPhraseCallTimeout 单次模型调用超时
func WithPhraseCallTimeout(timeout time.Duration) LLMPhraseOption {
	return func(e *LLMPhraseExtractor) {
		if timeout > 0 {
			e.callTimeout = timeout
		}
	}
}

// WithPhraseMaxInput 发送给模型的最大字符数，超出部分截断
func WithPhraseMaxInput(runes int) LLMPhraseOption {
	return func(e *LLMPhraseExtractor) {
		if runes > 0 {
			e.maxInput = runes
		}
	}
}

// WithPhraseLogger 配置日志记录器
func WithPhraseLogger(logger *log.Logger) LLMPhraseOption {
	return func(e *LLMPhraseExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewLLMPhraseExtractor 创建基于 LLM 的短语提取器
func NewLLMPhraseExtractor(llm model.BaseChatModel, opts ...LLMPhraseOption) *LLMPhraseExtractor {
	e := &LLMPhraseExtractor{
		llm:         llm,
		maxRetries:  2,
		retryDelay:  2 * time.Second,
		callTimeout: 60 * time.Second,
		maxInput:    8000,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PhraseCandidates 返回模型给出的短语列表，已去空白、去重
func (e *LLMPhraseExtractor) PhraseCandidates(ctx context.Context, text string) (phrases []string, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if r := []rune(text); len(r) > e.maxInput {
		text = string(r[:e.maxInput])
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "parser.llm_phrases")
	defer func() {
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		} else {
			span.SetAttributes(attribute.Int("llm.phrase_count", len(phrases)))
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("llm.input_length", len(text)))

	response, err := e.callLLM(ctx, text)
	if err != nil {
		return nil, err
	}

	raw := extractJSON(response)
	if raw == "" {
		return nil, ErrEmptyLLMResponse
	}
	var payload struct {
		Phrases []string `json:"phrases"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("解析短语JSON失败: %w", err)
	}

	seen := make(map[string]struct{}, len(payload.Phrases))
	phrases = make([]string, 0, len(payload.Phrases))
	for _, p := range payload.Phrases {
		p = strings.TrimSpace(p)
		key := strings.ToLower(p)
		if p == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		phrases = append(phrases, p)
	}
	return phrases, nil
}

func (e *LLMPhraseExtractor) callLLM(ctx context.Context, userContent string) (string, error) {
	messages := []*einoschema.Message{
		einoschema.SystemMessage(phrasePrompt),
		einoschema.UserMessage(userContent),
	}

	delay := e.retryDelay
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("上下文已取消: %w", ctx.Err())
			case <-time.After(delay):
				delay *= 2
				e.logger.Printf("重试LLM调用 (第%d次)", attempt)
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		resp, err := e.llm.Generate(callCtx, messages)
		cancel()
		if err == nil {
			if resp == nil {
				return "", ErrEmptyLLMResponse
			}
			return resp.Content, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}
	e.logger.Printf("LLM短语提取最终失败: %v", lastErr)
	return "", fmt.Errorf("LLM Generate failed: %w", lastErr)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := err.Error()
	for _, s := range []string{"timeout", "deadline exceeded", "connection reset", "EOF", "connection refused", "no such host", "429"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// extractJSON 优先取代码块中的 JSON，否则按花括号配对截取第一个对象
func extractJSON(text string) string {
	if m := jsonFenceRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}
