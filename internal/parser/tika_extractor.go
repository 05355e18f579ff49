package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tikaContentTypes 发送给 Tika 的 Content-Type
var tikaContentTypes = map[string]string{
	FormatPDF:  "application/pdf",
	FormatDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatDOC:  "application/msword",
	FormatTXT:  "text/plain",
}

// TikaExtractor 通过 Apache Tika 服务提取 PDF/DOC/DOCX 文本
type TikaExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client

	extractFullMetadata    bool
	extractMinimalMetadata bool
	extractAnnotations     bool
	logger                 *log.Logger
}

var _ DocumentExtractor = (*TikaExtractor)(nil)

// TikaOption 定义配置选项函数
type TikaOption func(*TikaExtractor)

// WithFullMetadata 配置是否提取完整元数据
func WithFullMetadata(extract bool) TikaOption {
	return func(e *TikaExtractor) {
		e.extractFullMetadata = extract
	}
}

// WithMinimalMetadata 配置是否提取精简的关键元数据
func WithMinimalMetadata(extract bool) TikaOption {
	return func(e *TikaExtractor) {
		e.extractMinimalMetadata = extract
	}
}

// WithAnnotations 配置是否提取PDF链接注释文本
func WithAnnotations(extract bool) TikaOption {
	return func(e *TikaExtractor) {
		e.extractAnnotations = extract
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(logger *log.Logger) TikaOption {
	return func(e *TikaExtractor) {
		e.logger = logger
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaExtractor) {
		if timeout > 0 {
			e.Client.Timeout = timeout
		}
	}
}

// NewTikaExtractor 创建 Tika 提取器，默认只附带精简元数据
func NewTikaExtractor(serverURL string, options ...TikaOption) *TikaExtractor {
	extractor := &TikaExtractor{
		ServerURL:              strings.TrimRight(serverURL, "/"),
		Client:                 &http.Client{Timeout: 60 * time.Second},
		extractMinimalMetadata: true,
		extractAnnotations:     true,
		logger:                 log.New(os.Stderr, "[Tika] ", log.LstdFlags),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// ExtractFromFile 从文件提取文本
func (e *TikaExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("读取文件 %s 失败: %w", filePath, err)
	}
	return e.ExtractTextFromBytes(ctx, data, filePath, nil)
}

// ExtractTextFromReader 从io.Reader提取文本内容
func (e *TikaExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("读取文档内容失败: %w", err)
	}
	return e.ExtractTextFromBytes(ctx, data, uri, options)
}

// ExtractTextFromBytes 把文档 PUT 到 /tika 获取纯文本，按配置再从 /meta 取元数据
func (e *TikaExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error) {
	startTime := time.Now()
	meta := extraMetaFrom(options)
	meta["extraction_time"] = startTime.Format(time.RFC3339)
	meta["source_file_path"] = uri

	req, err := e.newRequest(ctx, "/tika", data, uri, "text/plain")
	if err != nil {
		return "", meta, err
	}
	if !e.extractAnnotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	body, err := e.do(req)
	if err != nil {
		e.logger.Printf("Tika提取失败 %s: %v", uri, err)
		return "", meta, err
	}
	text := string(body)

	meta["text_length"] = len(text)
	meta["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	if e.extractFullMetadata || e.extractMinimalMetadata {
		raw, err := e.extractMetadata(ctx, data, uri)
		if err != nil {
			e.logger.Printf("元数据提取失败: %v, 继续使用基本元数据", err)
		}
		for k, v := range raw {
			if e.extractFullMetadata || isImportantMetadata(k) {
				meta[k] = v
			}
		}
	}

	e.logger.Printf("Tika文本提取完成: %s, %d 个字符 (用时 %.2f秒)", uri, len(text), time.Since(startTime).Seconds())
	return text, meta, nil
}

func (e *TikaExtractor) newRequest(ctx context.Context, path string, data []byte, uri, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	contentType, ok := tikaContentTypes[strings.ToLower(filepath.Ext(uri))]
	if !ok {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", accept)
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", filepath.Base(uri))
	}
	return req, nil
}

func (e *TikaExtractor) do(req *http.Request) ([]byte, error) {
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取Tika响应失败: %w", err)
	}
	return body, nil
}

// extractMetadata 提取文档元数据
func (e *TikaExtractor) extractMetadata(ctx context.Context, data []byte, uri string) (map[string]interface{}, error) {
	req, err := e.newRequest(ctx, "/meta", data, uri, "application/json")
	if err != nil {
		return nil, err
	}
	body, err := e.do(req)
	if err != nil {
		return nil, err
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("解析元数据JSON失败: %w", err)
	}
	return metadata, nil
}

// 判断元数据字段是否重要
func isImportantMetadata(key string) bool {
	switch key {
	case "pdf:PDFVersion", "xmpTPg:NPages", "dcterms:created", "language", "dc:title",
		"Content-Type", "pdf:docinfo:title", "pdf:docinfo:created", "meta:page-count", "meta:word-count":
		return true
	}
	return false
}
