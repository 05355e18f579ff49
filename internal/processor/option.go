package processor

import (
	"io"
	"log"
	"time"

	"resume-parser-go/internal/extractor"
	"resume-parser-go/internal/parser"
)

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

// WithcompTextExtractor 设置文档文本提取器
func WithcompTextExtractor(ex parser.DocumentExtractor) ComponentOpt {
	return func(c *Components) {
		c.TextExtractor = ex
	}
}

// WithcompReference 设置技能和职位参考数据
func WithcompReference(ref extractor.ReferenceData) ComponentOpt {
	return func(c *Components) {
		c.Reference = ref
	}
}

// WithcompPhrases 设置技能短语候选来源
func WithcompPhrases(phrases extractor.PhraseCapability) ComponentOpt {
	return func(c *Components) {
		c.Phrases = phrases
	}
}

// WithcompCache 设置解析结果缓存
func WithcompCache(cache ResultCache) ComponentOpt {
	return func(c *Components) {
		c.Cache = cache
	}
}

// WithcompSegmenter 替换默认的章节分段器
func WithcompSegmenter(s SectionSegmenter) ComponentOpt {
	return func(c *Components) {
		c.Segmenter = s
	}
}

// ----- 设置选项 -----

// WithsetDebug 设置调试模式
func WithsetDebug(debug bool) SettingOpt {
	return func(s *Settings) {
		s.Debug = debug
	}
}

// WithsetLogger 设置日志记录器，传入 nil 时丢弃日志
func WithsetLogger(logger *log.Logger) SettingOpt {
	return func(s *Settings) {
		if logger != nil {
			s.Logger = logger
		} else {
			s.Logger = log.New(io.Discard, "", 0)
		}
	}
}

// WithsetWorkers 设置批量解析并发数
func WithsetWorkers(n int) SettingOpt {
	return func(s *Settings) {
		s.Workers = n
	}
}

// WithsetCacheTTL 设置缓存有效期，0 表示不使用缓存
func WithsetCacheTTL(ttl time.Duration) SettingOpt {
	return func(s *Settings) {
		s.CacheTTL = ttl
	}
}

// ----- 日志辅助 -----

func (rp *ResumeParser) logDebug(format string, args ...interface{}) {
	if rp.Config.Debug {
		rp.Config.Logger.Printf("[DEBUG] "+format, args...)
	}
}

func (rp *ResumeParser) logInfo(format string, args ...interface{}) {
	rp.Config.Logger.Printf("[INFO] "+format, args...)
}

func (rp *ResumeParser) logWarn(format string, args ...interface{}) {
	rp.Config.Logger.Printf("[WARN] "+format, args...)
}

func (rp *ResumeParser) logError(format string, args ...interface{}) {
	rp.Config.Logger.Printf("[ERROR] "+format, args...)
}
