package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

const docxBodyPart = "word/document.xml"

// errNoDocumentPart docx 压缩包里缺少正文
var errNoDocumentPart = errors.New("docx 缺少 word/document.xml")

// DocxTextExtractor 在本地解析 DOCX，按段落输出文本
type DocxTextExtractor struct {
	logger *log.Logger
}

var _ DocumentExtractor = (*DocxTextExtractor)(nil)

// NewDocxTextExtractor 创建 DOCX 提取器，logger 为 nil 时丢弃日志
func NewDocxTextExtractor(logger *log.Logger) *DocxTextExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DocxTextExtractor{logger: logger}
}

// ExtractFromFile 从 DOCX 文件提取文本
func (e *DocxTextExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("读取DOCX文件失败 %s: %w", filePath, err)
	}
	return e.ExtractTextFromBytes(ctx, data, filePath, map[string]interface{}{
		"source_file_path": filePath,
	})
}

// ExtractTextFromReader 从 io.Reader 提取 DOCX 文本
func (e *DocxTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("读取DOCX内容失败 %s: %w", uri, err)
	}
	return e.ExtractTextFromBytes(ctx, data, uri, options)
}

// ExtractTextFromBytes 解压 word/document.xml 并按段落拼接文本
func (e *DocxTextExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error) {
	meta := extraMetaFrom(options)
	startTime := time.Now()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", meta, fmt.Errorf("打开DOCX压缩包失败 %s: %w", uri, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", meta, fmt.Errorf("%s: %w", uri, errNoDocumentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", meta, fmt.Errorf("读取DOCX正文失败 %s: %w", uri, err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(ctx, rc)
	if err != nil {
		return "", meta, fmt.Errorf("解析DOCX正文失败 %s: %w", uri, err)
	}
	text := strings.Join(paragraphs, "\n")

	meta["paragraph_count"] = len(paragraphs)
	meta["text_length"] = len(text)
	meta["processing_duration_ms"] = time.Since(startTime).Milliseconds()
	e.logger.Printf("DOCX提取完成: %s, %d 个段落", uri, len(paragraphs))
	return text, meta, nil
}

// docxParagraphs 流式遍历 WordprocessingML：w:t 为文本，w:tab 为制表符，
// w:br/w:cr 为换行，每个 w:p 结束时输出一段。
func docxParagraphs(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs, nil
}
