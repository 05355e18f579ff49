package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// PlainTextExtractor 读取纯文本简历。识别 UTF-8/UTF-16 BOM，
// 无 BOM 时按 UTF-8 处理并丢弃非法字节。
type PlainTextExtractor struct{}

var _ DocumentExtractor = (*PlainTextExtractor)(nil)

// NewPlainTextExtractor 创建纯文本提取器
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// ExtractFromFile 从文本文件读取
func (e *PlainTextExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("读取文本文件失败 %s: %w", filePath, err)
	}
	return e.ExtractTextFromBytes(ctx, data, filePath, map[string]interface{}{
		"source_file_path": filePath,
	})
}

// ExtractTextFromReader 从 io.Reader 读取
func (e *PlainTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("读取文本内容失败 %s: %w", uri, err)
	}
	return e.ExtractTextFromBytes(ctx, data, uri, options)
}

// ExtractTextFromBytes 解码为 UTF-8
func (e *PlainTextExtractor) ExtractTextFromBytes(_ context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error) {
	meta := extraMetaFrom(options)

	decoder := unicode.BOMOverride(encoding.Nop.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", meta, fmt.Errorf("文本解码失败 %s: %w", uri, err)
	}
	if !utf8.Valid(decoded) {
		decoded = bytes.ToValidUTF8(decoded, nil)
	}
	text := strings.TrimPrefix(string(decoded), "\ufeff")

	meta["text_length"] = len(text)
	return text, meta, nil
}
