package processor

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"resume-parser-go/internal/agent"
	"resume-parser-go/internal/config"
	"resume-parser-go/internal/extractor"
	"resume-parser-go/internal/parser"
	"resume-parser-go/pkg/ratelimit"
)

// LoggerProvider 按组件前缀构造日志记录器
type LoggerProvider func(prefix string) *log.Logger

func discardLoggers(string) *log.Logger { return log.New(io.Discard, "", 0) }

// BuildTextExtractor 根据配置组装按格式路由的文本提取器。
// tika.type 为 "tika" 时 PDF/DOCX/DOC 交给 Tika，否则 PDF 用 Eino、DOCX 本地解析，且不支持 DOC。
func BuildTextExtractor(ctx context.Context, cfg *config.Config, loggerProvider LoggerProvider) (parser.DocumentExtractor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if loggerProvider == nil {
		loggerProvider = discardLoggers
	}
	initLogger := loggerProvider("[ExtractorInit] ")

	opts := []parser.RouterOption{
		parser.WithRouterLogger(loggerProvider("[FormatRouter] ")),
		parser.WithFormat(parser.FormatTXT, parser.NewPlainTextExtractor()),
	}

	if cfg.Tika.Type == "tika" && cfg.Tika.ServerURL != "" {
		initLogger.Printf("使用Tika解析 PDF/DOCX/DOC: %s", cfg.Tika.ServerURL)
		tika := parser.NewTikaExtractor(cfg.Tika.ServerURL, tikaOptions(cfg.Tika, loggerProvider)...)
		opts = append(opts,
			parser.WithFormat(parser.FormatPDF, tika),
			parser.WithFormat(parser.FormatDOCX, tika),
			parser.WithFormat(parser.FormatDOC, tika),
		)
		return parser.NewFormatRouter(opts...), nil
	}

	initLogger.Println("未配置Tika，PDF使用Eino解析，DOCX本地解析，DOC不受支持")
	pdf, err := parser.NewEinoPDFTextExtractor(ctx, parser.WithEinoLogger(loggerProvider("[EinoPDF] ")))
	if err != nil {
		return nil, fmt.Errorf("初始化Eino PDF解析器失败: %w", err)
	}
	opts = append(opts,
		parser.WithFormat(parser.FormatPDF, pdf),
		parser.WithFormat(parser.FormatDOCX, parser.NewDocxTextExtractor(loggerProvider("[DOCX] "))),
	)
	return parser.NewFormatRouter(opts...), nil
}

func tikaOptions(cfg config.TikaConfig, loggerProvider LoggerProvider) []parser.TikaOption {
	var opts []parser.TikaOption
	switch cfg.MetadataMode {
	case "full":
		opts = append(opts, parser.WithFullMetadata(true))
	case "none":
		opts = append(opts, parser.WithMinimalMetadata(false), parser.WithFullMetadata(false))
	default:
		opts = append(opts, parser.WithMinimalMetadata(true))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, parser.WithTimeout(time.Duration(cfg.Timeout)*time.Second))
	}
	return append(opts, parser.WithTikaLogger(loggerProvider("[Tika] ")))
}

// BuildPhraseCapability 根据 phrase.provider 返回短语候选来源。
// llm 模式下模型调用经过令牌桶限流，重试由 LLMPhraseExtractor 负责。
func BuildPhraseCapability(cfg *config.Config, loggerProvider LoggerProvider) (extractor.PhraseCapability, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if loggerProvider == nil {
		loggerProvider = discardLoggers
	}
	if cfg.Phrase.Provider != "llm" {
		return extractor.NewDelimiterPhraseChunker(), nil
	}

	llmCfg := cfg.Phrase.LLM
	chatModel, err := agent.NewOpenAIChatModel(llmCfg.APIKey, llmCfg.BaseURL,
		agent.WithModelName(llmCfg.Model),
		agent.WithTemperature(float32(llmCfg.Temperature)),
		agent.WithMaxTokens(llmCfg.MaxTokens),
		agent.WithModelLogger(loggerProvider("[ChatModel] ")),
	)
	if err != nil {
		return nil, fmt.Errorf("初始化短语模型失败: %w", err)
	}
	limited := ratelimit.NewRateLimitedChatModel(chatModel, llmCfg.QPM)

	return parser.NewLLMPhraseExtractor(limited,
		parser.WithPhraseRetry(llmCfg.MaxRetries, 2*time.Second),
		parser.WithPhraseCallTimeout(config.GetDuration(llmCfg.Timeout, 60*time.Second)),
		parser.WithPhraseLogger(loggerProvider("[LLMPhrase] ")),
	), nil
}

// NewResumeParserFromConfig 按配置组装完整的解析器。cache 可为 nil。
func NewResumeParserFromConfig(ctx context.Context, cfg *config.Config, cache ResultCache, loggerProvider LoggerProvider) (*ResumeParser, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if loggerProvider == nil {
		loggerProvider = discardLoggers
	}

	textExtractor, err := BuildTextExtractor(ctx, cfg, loggerProvider)
	if err != nil {
		return nil, err
	}
	phrases, err := BuildPhraseCapability(cfg, loggerProvider)
	if err != nil {
		return nil, err
	}
	ref := extractor.ResolveReferenceData(cfg.Reference.SkillsFile, cfg.Reference.JobTitlesFile,
		loggerProvider("[Reference] "))

	components := &Components{
		TextExtractor: textExtractor,
		Reference:     ref,
		Phrases:       phrases,
		Cache:         cache,
	}
	settings := &Settings{
		Workers:  cfg.Parser.Workers,
		Debug:    cfg.Parser.Debug || cfg.Logger.Level == "debug",
		CacheTTL: cfg.CacheTTL(),
		Logger:   loggerProvider("[ResumeParser] "),
	}
	return NewResumeParserV2(components, settings), nil
}
