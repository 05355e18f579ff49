// Package processor 把文本提取、归一化、分段和各字段抽取串成一次完整的简历解析。
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/extractor"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"
	"resume-parser-go/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "processor"

// ResultCache 按文本MD5缓存解析结果
type ResultCache interface {
	GetParseResult(ctx context.Context, textMD5 string) (*types.ResumeRecord, error)
	SetParseResult(ctx context.Context, textMD5 string, record *types.ResumeRecord, ttl time.Duration) error
}

var _ ResultCache = (*storage.Redis)(nil)

// SectionSegmenter 把归一化文本切成命名章节
type SectionSegmenter interface {
	Segment(text string) map[types.SectionName]string
}

var _ SectionSegmenter = (*extractor.Segmenter)(nil)

// Components 聚合解析依赖，便于集中管理和测试替换
type Components struct {
	TextExtractor parser.DocumentExtractor   // 文件解析时必需，ParseText 不需要
	Reference     extractor.ReferenceData    // 为空时使用内置列表
	Phrases       extractor.PhraseCapability // 为空时跳过短语候选
	Cache         ResultCache                // 可选
	Segmenter     SectionSegmenter           // 为空时使用默认表头
}

// Settings 纯配置项
type Settings struct {
	Workers  int           // 批量解析并发数
	Debug    bool          // 是否输出调试日志
	CacheTTL time.Duration // 缓存有效期，0 表示不使用缓存
	Logger   *log.Logger
}

// ResumeParser 简历解析编排器。无跨文档状态，可被多个协程共享。
type ResumeParser struct {
	TextExtractor parser.DocumentExtractor
	Cache         ResultCache

	segmenter  SectionSegmenter
	experience *extractor.ExperienceExtractor
	skills     *extractor.SkillsExtractor

	Config Settings
}

// NewResumeParserV2 使用明确分离的组件和设置创建解析器
func NewResumeParserV2(comp *Components, set *Settings, opts ...SettingOpt) *ResumeParser {
	if comp == nil {
		comp = &Components{}
	}
	if set == nil {
		set = &Settings{}
	}
	for _, opt := range opts {
		opt(set)
	}
	if set.Logger == nil {
		set.Logger = log.New(os.Stdout, "[ResumeParser] ", log.LstdFlags)
	}
	if set.Workers <= 0 {
		set.Workers = constants.DefaultWorkers
	}

	ref := comp.Reference
	if ref == nil {
		ref = extractor.BuiltInReferenceData{}
	}
	segmenter := comp.Segmenter
	if segmenter == nil {
		segmenter = extractor.NewSegmenter(nil)
	}

	return &ResumeParser{
		TextExtractor: comp.TextExtractor,
		Cache:         comp.Cache,
		segmenter:     segmenter,
		experience:    extractor.NewExperienceExtractor(ref),
		skills:        extractor.NewSkillsExtractor(ref, comp.Phrases, set.Logger),
		Config:        *set,
	}
}

// CreateParser 用选项函数创建解析器
func CreateParser(compOpts []ComponentOpt, setOpts []SettingOpt) *ResumeParser {
	components := &Components{}
	for _, opt := range compOpts {
		opt(components)
	}
	return NewResumeParserV2(components, &Settings{}, setOpts...)
}

// ParseFile 提取文件文本并解析，记录中的 file_name 为文件基本名
func (rp *ResumeParser) ParseFile(ctx context.Context, path string) (*types.ResumeRecord, error) {
	fileName := filepath.Base(path)
	text, err := rp.extractText(ctx, fileName, func(ctx context.Context) (string, error) {
		text, meta, err := rp.TextExtractor.ExtractFromFile(ctx, path)
		if err == nil {
			rp.logDebug("已提取 %s 的文本: %d 字符, 元数据 %v", fileName, len(text), meta)
		}
		return text, err
	})
	if err != nil {
		return nil, err
	}
	return rp.ParseText(ctx, fileName, text)
}

// ParseReader 从读取器提取文本并解析，fileName 用于判断格式
func (rp *ResumeParser) ParseReader(ctx context.Context, fileName string, r io.Reader) (*types.ResumeRecord, error) {
	fileName = filepath.Base(fileName)
	text, err := rp.extractText(ctx, fileName, func(ctx context.Context) (string, error) {
		text, _, err := rp.TextExtractor.ExtractTextFromReader(ctx, r, fileName, nil)
		return text, err
	})
	if err != nil {
		return nil, err
	}
	return rp.ParseText(ctx, fileName, text)
}

// extractText 在 resume.extract_text span 内运行提取，失败和空文本都记为 extraction 错误
func (rp *ResumeParser) extractText(ctx context.Context, fileName string, extract func(context.Context) (string, error)) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "resume.extract_text")
	defer span.End()
	span.SetAttributes(fileNameAttr(fileName))

	fail := func(err error) (string, error) {
		tracing.RecordError(span, tracing.RedactError(err, fileName), tracing.ErrorTypeExtraction)
		return "", err
	}
	if rp.TextExtractor == nil {
		return fail(NewExtractTextError(fileName, errors.New("未配置文本提取器")))
	}
	text, err := extract(ctx)
	if err != nil {
		return fail(NewExtractTextError(fileName, err))
	}
	if strings.TrimSpace(text) == "" {
		return fail(NewEmptyTextError(fileName))
	}
	span.SetAttributes(attribute.Int("resume.text_length", len(text)))
	return text, nil
}

func fileNameAttr(fileName string) attribute.KeyValue {
	return attribute.String("resume.file_name", tracing.SafeAttributeValue("resume.file_name", fileName, tracing.MaxFileNameLength))
}

// ParseText 解析已提取的纯文本。
// 单个字段抽取失败只清空该字段；分段阶段失败则整份文档失败，不返回部分结果。
func (rp *ResumeParser) ParseText(ctx context.Context, fileName, text string) (*types.ResumeRecord, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "resume.parse")
	defer span.End()
	span.SetAttributes(
		fileNameAttr(fileName),
		attribute.Int("resume.text_length", len(text)),
	)

	var textMD5 string
	if rp.cacheEnabled() {
		textMD5 = utils.CalculateMD5([]byte(text))
		if cached, err := rp.Cache.GetParseResult(ctx, textMD5); err == nil && cached != nil {
			span.SetAttributes(attribute.Bool("resume.cache_hit", true))
			rp.logDebug("命中解析缓存: %s (md5=%s)", fileName, textMD5)
			cached.FileName = fileName
			return cached, nil
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			rp.logWarn("读取解析缓存失败，继续解析: %v", err)
		}
	}

	record, sectionCount, err := rp.parseDocument(ctx, fileName, text)
	if err != nil {
		tracing.RecordError(span, tracing.RedactError(err, fileName), tracing.ErrorTypeParse)
		rp.logError("解析 %s 失败: %v", fileName, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("resume.section_count", sectionCount))

	if rp.cacheEnabled() {
		if err := rp.Cache.SetParseResult(ctx, textMD5, record, rp.Config.CacheTTL); err != nil {
			rp.logWarn("写入解析缓存失败: %v", err)
		}
	}
	rp.logInfo("解析完成: %s (章节 %d, 技能 %d, 经历 %d, 教育 %d)",
		fileName, sectionCount, len(record.Skills), len(record.Experience), len(record.Education))
	return record, nil
}

func (rp *ResumeParser) cacheEnabled() bool {
	return rp.Cache != nil && rp.Config.CacheTTL > 0
}

// parseDocument 归一化 → 分段 → 各字段抽取
func (rp *ResumeParser) parseDocument(ctx context.Context, fileName, text string) (record *types.ResumeRecord, sectionCount int, err error) {
	defer func() {
		if r := recover(); r != nil {
			record, sectionCount = nil, 0
			err = NewParseError(fileName, fmt.Sprint(r))
		}
	}()

	normalized, sections, err := rp.segment(fileName, text)
	if err != nil {
		return nil, 0, err
	}
	rp.logDebug("%s 识别到 %d 个章节", fileName, len(sections))

	record = types.NewResumeRecord(fileName)
	rp.contain(fileName, "contact_info", func() {
		record.ContactInfo = extractor.ExtractContactInfo(normalized)
	})
	rp.contain(fileName, "skills", func() {
		record.Skills = rp.skills.Extract(ctx, sections[types.SectionSkills])
	})
	rp.contain(fileName, "experience", func() {
		record.Experience = rp.experience.Extract(sections[types.SectionExperience])
	})
	rp.contain(fileName, "education", func() {
		record.Education = extractor.ExtractEducation(sections[types.SectionEducation])
	})
	rp.contain(fileName, "certifications", func() {
		record.Certifications = extractor.ExtractCertifications(sections[types.SectionCertifications])
	})
	rp.contain(fileName, "projects", func() {
		record.Projects = extractor.ExtractProjects(sections[types.SectionProjects])
	})
	return record, len(sections), nil
}

func (rp *ResumeParser) segment(fileName, text string) (normalized string, sections map[types.SectionName]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			normalized, sections = "", nil
			err = NewSegmentError(fileName, fmt.Sprint(r))
		}
	}()
	normalized = extractor.Normalize(text)
	return normalized, rp.segmenter.Segment(normalized), nil
}

// contain 运行单个字段抽取；panic 时该字段保持为空
func (rp *ResumeParser) contain(fileName, field string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			rp.logWarn("%s 的 %s 字段抽取失败，已置空: %v", fileName, field, r)
		}
	}()
	fn()
}
