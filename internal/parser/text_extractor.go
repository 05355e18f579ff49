package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DocumentExtractor 把一种格式的文档转换为 UTF-8 纯文本
type DocumentExtractor interface {
	// ExtractFromFile 从文件提取文本和元数据
	ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error)

	// ExtractTextFromReader 从 io.Reader 提取文本和元数据，uri 用于日志、元数据和格式判断
	ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error)

	// ExtractTextFromBytes 从字节数组提取文本和元数据
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error)
}

// ErrUnsupportedFormat 不支持的文件格式
var ErrUnsupportedFormat = errors.New("unsupported file format")

// FormatError 源文件格式不受支持或无法读取，只中止该文档的解析
type FormatError struct {
	Source string
	Ext    string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Ext != "" {
		return fmt.Sprintf("文档格式错误 %s (%s): %v", e.Source, e.Ext, e.Err)
	}
	return fmt.Sprintf("文档格式错误 %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// 格式常量，取小写扩展名
const (
	FormatPDF  = ".pdf"
	FormatDOCX = ".docx"
	FormatDOC  = ".doc"
	FormatTXT  = ".txt"
)

var (
	magicPDF = []byte("%PDF")
	magicZip = []byte("PK\x03\x04")
	magicOLE = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// DetectFormat 先看扩展名，无法识别时按文件头嗅探。返回空串表示无法判断。
func DetectFormat(uri string, head []byte) string {
	switch ext := strings.ToLower(filepath.Ext(uri)); ext {
	case FormatPDF, FormatDOCX, FormatDOC, FormatTXT:
		return ext
	case "":
	default:
		return ext
	}

	switch {
	case bytes.HasPrefix(head, magicPDF):
		return FormatPDF
	case bytes.HasPrefix(head, magicZip):
		return FormatDOCX
	case bytes.HasPrefix(head, magicOLE):
		return FormatDOC
	case len(head) > 0 && looksLikeText(head):
		return FormatTXT
	}
	return ""
}

// looksLikeText 文件头是合法 UTF-8（允许末尾字符被截断）或带 UTF-16 BOM
func looksLikeText(head []byte) bool {
	if bytes.HasPrefix(head, []byte{0xFF, 0xFE}) || bytes.HasPrefix(head, []byte{0xFE, 0xFF}) {
		return true
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	for cut := 0; cut < utf8.UTFMax && cut < len(head); cut++ {
		if utf8.Valid(head[:len(head)-cut]) {
			return true
		}
	}
	return false
}

// FormatRouter 按格式分发到具体提取器
type FormatRouter struct {
	extractors map[string]DocumentExtractor
	logger     *log.Logger
}

var _ DocumentExtractor = (*FormatRouter)(nil)

// RouterOption FormatRouter 配置选项
type RouterOption func(*FormatRouter)

// WithFormat 为某个扩展名注册提取器，重复注册时后者覆盖前者
func WithFormat(ext string, extractor DocumentExtractor) RouterOption {
	return func(r *FormatRouter) {
		if extractor != nil {
			r.extractors[strings.ToLower(ext)] = extractor
		}
	}
}

// WithRouterLogger 配置日志记录器
func WithRouterLogger(logger *log.Logger) RouterOption {
	return func(r *FormatRouter) {
		r.logger = logger
	}
}

// NewFormatRouter 创建格式分发器
func NewFormatRouter(opts ...RouterOption) *FormatRouter {
	r := &FormatRouter{
		extractors: make(map[string]DocumentExtractor),
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Supports 是否注册了该格式
func (r *FormatRouter) Supports(ext string) bool {
	_, ok := r.extractors[strings.ToLower(ext)]
	return ok
}

func (r *FormatRouter) route(uri string, head []byte) (DocumentExtractor, string, error) {
	format := DetectFormat(uri, head)
	extractor, ok := r.extractors[format]
	if !ok {
		return nil, format, &FormatError{Source: uri, Ext: format, Err: ErrUnsupportedFormat}
	}
	return extractor, format, nil
}

// ExtractFromFile 打开文件后按格式分发
func (r *FormatRouter) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("读取文件失败 %s: %w", filePath, err)
	}
	return r.ExtractTextFromBytes(ctx, data, filePath, map[string]interface{}{
		"source_file_path": filePath,
	})
}

// ExtractTextFromReader 读取全部内容后按格式分发
func (r *FormatRouter) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("读取文档内容失败 %s: %w", uri, err)
	}
	return r.ExtractTextFromBytes(ctx, data, uri, options)
}

// ExtractTextFromBytes 按格式分发；下游失败统一包装为 FormatError
func (r *FormatRouter) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	extractor, format, err := r.route(uri, head)
	if err != nil {
		r.logger.Printf("不支持的文档格式: %s (%q)", uri, format)
		return "", nil, err
	}

	text, meta, err := extractor.ExtractTextFromBytes(ctx, data, uri, options)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) || ctx.Err() != nil {
			return "", meta, err
		}
		return "", meta, &FormatError{Source: uri, Ext: format, Err: err}
	}
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["format"] = format
	return text, meta, nil
}

// extraMetaFrom 把 options 规整为元数据 map
func extraMetaFrom(options interface{}) map[string]interface{} {
	if options == nil {
		return make(map[string]interface{})
	}
	if meta, ok := options.(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(meta))
		for k, v := range meta {
			out[k] = v
		}
		return out
	}
	return map[string]interface{}{"original_options": options}
}
