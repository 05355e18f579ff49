package processor

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/extractor"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const sampleResume = "Jane Doe\njane@example.com\n" +
	"EXPERIENCE\nSenior Software Engineer at Acme Corp\nJan 2020 - Dec 2021\n• Built APIs\n" +
	"SKILLS\nDocker and Kubernetes"

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// fakeCache 内存版解析结果缓存
type fakeCache struct {
	mu      sync.Mutex
	records map[string]*types.ResumeRecord
	gets    int
	sets    int
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{records: make(map[string]*types.ResumeRecord)}
}

func (c *fakeCache) GetParseResult(_ context.Context, md5 string) (*types.ResumeRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	rec, ok := c.records[md5]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (c *fakeCache) SetParseResult(_ context.Context, md5 string, rec *types.ResumeRecord, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	clone := *rec
	c.records[md5] = &clone
	return nil
}

type panicSegmenter struct{}

func (panicSegmenter) Segment(string) map[types.SectionName]string { panic("分段器崩溃") }

func newTestParser(opts ...ComponentOpt) *ResumeParser {
	return CreateParser(opts, []SettingOpt{WithsetLogger(quietLogger()), WithsetWorkers(2)})
}

func TestParseText_FullDocument(t *testing.T) {
	rp := newTestParser()

	record, err := rp.ParseText(context.Background(), "jane.txt", sampleResume)
	require.NoError(t, err)

	assert.Equal(t, "jane.txt", record.FileName)
	require.NotNil(t, record.ContactInfo.Email)
	assert.Equal(t, "jane@example.com", *record.ContactInfo.Email)
	assert.Nil(t, record.ContactInfo.GitHub)

	assert.Equal(t, []string{"docker", "kubernetes"}, record.Skills)

	require.Len(t, record.Experience, 1)
	exp := record.Experience[0]
	assert.Equal(t, "Software Engineer", *exp.JobTitle)
	assert.Equal(t, "Acme Corp", *exp.Company)
	assert.Equal(t, "Jan 2020 - Dec 2021", *exp.Dates)
	assert.Equal(t, []string{"Built APIs"}, exp.Responsibilities)

	assert.NotNil(t, record.Education, "未出现的章节应为空切片而不是 nil")
	assert.Empty(t, record.Education)
	assert.Empty(t, record.Certifications)
	assert.Empty(t, record.Projects)
}

func TestParseText_EmptyText(t *testing.T) {
	rp := newTestParser()

	record, err := rp.ParseText(context.Background(), "empty.txt", "")
	require.NoError(t, err, "空文本应得到空记录而不是错误")
	assert.Equal(t, "empty.txt", record.FileName)
	assert.Empty(t, record.Skills)
	assert.Nil(t, record.ContactInfo.Email)
}

func TestParseText_ExtractorPanicIsContained(t *testing.T) {
	panicking := extractor.PhraseCapabilityFunc(func(context.Context, string) ([]string, error) {
		panic("短语模型崩溃")
	})
	rp := newTestParser(WithcompPhrases(panicking))

	record, err := rp.ParseText(context.Background(), "jane.txt", sampleResume)
	require.NoError(t, err, "单个字段抽取失败不应导致整份简历失败")
	assert.NotNil(t, record.Skills)
	assert.Empty(t, record.Skills, "崩溃的字段应保持为空")
	require.Len(t, record.Experience, 1, "其他字段应正常抽取")
	require.NotNil(t, record.ContactInfo.Email)
}

func TestParseText_SegmentPanicFailsDocument(t *testing.T) {
	rp := newTestParser(WithcompSegmenter(panicSegmenter{}))

	record, err := rp.ParseText(context.Background(), "jane.txt", sampleResume)
	require.Error(t, err)
	assert.Nil(t, record, "分段失败时不应返回部分结果")
	assert.ErrorIs(t, err, ErrSegmentFailed)
	assert.ErrorIs(t, err, ErrParseFailed)

	var parseErr *ResumeParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "segment", parseErr.Op)
	assert.Equal(t, "jane.txt", parseErr.FileName)
	assert.Contains(t, err.Error(), "分段器崩溃")
}

func TestParseText_UsesCache(t *testing.T) {
	cache := newFakeCache()
	rp := CreateParser(
		[]ComponentOpt{WithcompCache(cache)},
		[]SettingOpt{WithsetLogger(quietLogger()), WithsetCacheTTL(time.Hour)},
	)
	ctx := context.Background()

	first, err := rp.ParseText(ctx, "a.txt", sampleResume)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "首次解析应写入缓存")

	second, err := rp.ParseText(ctx, "b.txt", sampleResume)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "命中缓存时不应重复写入")
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, "b.txt", second.FileName, "缓存结果的文件名应替换为当前文件")
	assert.Equal(t, first.Skills, second.Skills)
}

func TestParseText_CacheErrorsDoNotFailParse(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("连接被拒绝")
	rp := CreateParser(
		[]ComponentOpt{WithcompCache(cache)},
		[]SettingOpt{WithsetLogger(quietLogger()), WithsetCacheTTL(time.Hour)},
	)

	record, err := rp.ParseText(context.Background(), "a.txt", sampleResume)
	require.NoError(t, err)
	assert.NotEmpty(t, record.Skills)
}

func TestParseText_CacheDisabledWithZeroTTL(t *testing.T) {
	cache := newFakeCache()
	rp := newTestParser(WithcompCache(cache))

	_, err := rp.ParseText(context.Background(), "a.txt", sampleResume)
	require.NoError(t, err)
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.sets)
}

func txtRouter() parser.DocumentExtractor {
	return parser.NewFormatRouter(parser.WithFormat(parser.FormatTXT, parser.NewPlainTextExtractor()))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jane_doe.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleResume), 0o644))

	rp := newTestParser(WithcompTextExtractor(txtRouter()))
	record, err := rp.ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "jane_doe.txt", record.FileName, "file_name 应为基本名")
	assert.Len(t, record.Experience, 1)
}

func TestParseFile_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	rp := newTestParser(WithcompTextExtractor(txtRouter()))

	unsupported := filepath.Join(dir, "resume.xyz")
	require.NoError(t, os.WriteFile(unsupported, []byte("text"), 0o644))
	_, err := rp.ParseFile(ctx, unsupported)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractTextFailed)
	assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)
	var formatErr *parser.FormatError
	assert.ErrorAs(t, err, &formatErr, "应能取出原始的 FormatError")

	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte(" \n\t "), 0o644))
	_, err = rp.ParseFile(ctx, blank)
	assert.ErrorIs(t, err, ErrEmptyText)

	noExtractor := newTestParser()
	_, err = noExtractor.ParseFile(ctx, blank)
	assert.ErrorIs(t, err, ErrExtractTextFailed)
}

// installSpanRecorder 把全局 TracerProvider 替换为内存记录器，测试结束后恢复
func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]string {
	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

func TestParseFile_RecordsExtractionErrorOnSpan(t *testing.T) {
	recorder := installSpanRecorder(t)
	dir := t.TempDir()
	blank := filepath.Join(dir, "jane_doe.txt")
	require.NoError(t, os.WriteFile(blank, []byte("  "), 0o644))

	rp := newTestParser(WithcompTextExtractor(txtRouter()))
	_, err := rp.ParseFile(context.Background(), blank)
	require.ErrorIs(t, err, ErrEmptyText)

	ended := recorder.Ended()
	require.Len(t, ended, 1, "提取失败时不应进入解析阶段")
	assert.Equal(t, "resume.extract_text", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	attrs := spanAttrs(ended[0])
	assert.Equal(t, "extraction", attrs["error.type"])
	assert.Equal(t, "ja********xt", attrs["resume.file_name"], "span 中的文件名应掩码")

	_, err = rp.ParseReader(context.Background(), "cv.xyz", strings.NewReader("text"))
	require.ErrorIs(t, err, ErrExtractTextFailed)
	ended = recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "extraction", spanAttrs(ended[1])["error.type"])
}

func TestParseReader(t *testing.T) {
	rp := newTestParser(WithcompTextExtractor(txtRouter()))

	record, err := rp.ParseReader(context.Background(), "uploads/cv.txt", strings.NewReader(sampleResume))
	require.NoError(t, err)
	assert.Equal(t, "cv.txt", record.FileName)
}

func TestParseBatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.txt")
	bad := filepath.Join(dir, "b.xyz")
	missing := filepath.Join(dir, "missing.txt")
	require.NoError(t, os.WriteFile(good, []byte(sampleResume), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))

	rp := newTestParser(WithcompTextExtractor(txtRouter()))
	results := rp.ParseBatch(context.Background(), []string{good, bad, missing, good})

	require.Len(t, results, 4)
	assert.Equal(t, good, results[0].Path)
	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Record)

	assert.Equal(t, bad, results[1].Path)
	assert.ErrorIs(t, results[1].Err, parser.ErrUnsupportedFormat)
	assert.Nil(t, results[1].Record)

	assert.ErrorIs(t, results[2].Err, os.ErrNotExist, "单个文件失败不应影响其他文件")
	assert.NoError(t, results[3].Err)
}

func TestParseBatch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rp := newTestParser(WithcompTextExtractor(txtRouter()))
	results := rp.ParseBatch(ctx, []string{"a.txt", "b.txt"})
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestCollectInputFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	for _, name := range []string{"b.PDF", "a.txt", "notes.md", filepath.Join("nested", "c.docx")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := CollectInputFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.PDF"),
		filepath.Join(sub, "c.docx"),
	}, files)

	single, err := CollectInputFiles(filepath.Join(dir, "notes.md"))
	require.NoError(t, err)
	assert.Len(t, single, 1, "单个文件应原样返回")

	_, err = CollectInputFiles(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestBuildPhraseCapability(t *testing.T) {
	cfg := &config.Config{}
	cfg.Phrase.Provider = "rule"
	phrases, err := BuildPhraseCapability(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &extractor.DelimiterPhraseChunker{}, phrases)

	cfg.Phrase.Provider = "llm"
	_, err = BuildPhraseCapability(cfg, nil)
	assert.Error(t, err, "缺少 API Key 时应报错")

	cfg.Phrase.LLM.APIKey = "sk-test"
	cfg.Phrase.LLM.QPM = 60
	phrases, err = BuildPhraseCapability(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &parser.LLMPhraseExtractor{}, phrases)
}

func TestBuildTextExtractor_Tika(t *testing.T) {
	cfg := &config.Config{}
	cfg.Tika.Type = "tika"
	cfg.Tika.ServerURL = "http://localhost:9998"

	ex, err := BuildTextExtractor(context.Background(), cfg, nil)
	require.NoError(t, err)
	router, ok := ex.(*parser.FormatRouter)
	require.True(t, ok)
	for _, ext := range []string{".pdf", ".docx", ".doc", ".txt"} {
		assert.True(t, router.Supports(ext), "Tika 模式应支持 %s", ext)
	}
}
