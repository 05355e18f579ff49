// Package output 把解析结果序列化为 JSON 或固定版式的文本。
package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"resume-parser-go/internal/types"
	"resume-parser-go/pkg/utils"
)

// Format 输出格式
type Format string

const (
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
)

const notAvailable = "N/A"

// ParseFormat 大小写不敏感地解析输出格式
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTXT:
		return f, nil
	default:
		return "", fmt.Errorf("不支持的输出格式 %q，只支持 json 或 txt", s)
	}
}

// ContentType 对应的 HTTP Content-Type
func (f Format) ContentType() string {
	if f == FormatTXT {
		return "text/plain; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// Render 按格式写出记录
func Render(w io.Writer, record *types.ResumeRecord, format Format) error {
	if record == nil {
		return fmt.Errorf("解析结果不能为空")
	}
	switch format {
	case FormatJSON:
		return WriteJSON(w, record)
	case FormatTXT:
		return WriteText(w, record)
	default:
		return fmt.Errorf("不支持的输出格式 %q", format)
	}
}

// Marshal 按格式序列化为字节
func Marshal(record *types.ResumeRecord, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, record, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON 四空格缩进，不转义 HTML 字符
func WriteJSON(w io.Writer, record *types.ResumeRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	return nil
}

// WriteText 写出人工阅读用的文本版式
func WriteText(w io.Writer, record *types.ResumeRecord) error {
	bw := bufio.NewWriter(w)
	na := func(p *string) string { return utils.Deref(p, notAvailable) }

	fmt.Fprint(bw, "=== RESUME PARSING RESULTS ===\n\n")

	c := record.ContactInfo
	fmt.Fprint(bw, "CONTACT:\n")
	fmt.Fprintf(bw, "Email: %s\n", na(c.Email))
	fmt.Fprintf(bw, "Phone: %s\n", na(c.Phone))
	fmt.Fprintf(bw, "LinkedIn: %s\n", na(c.LinkedIn))
	fmt.Fprintf(bw, "GitHub: %s\n\n", na(c.GitHub))

	fmt.Fprint(bw, "SKILLS:\n")
	for _, skill := range record.Skills {
		fmt.Fprintf(bw, "- %s\n", skill)
	}
	fmt.Fprint(bw, "\n")

	fmt.Fprint(bw, "EXPERIENCE:\n")
	for _, exp := range record.Experience {
		fmt.Fprintf(bw, "- %s at %s, %s\n", na(exp.JobTitle), na(exp.Company), na(exp.Dates))
		for _, resp := range exp.Responsibilities {
			fmt.Fprintf(bw, "  • %s\n", resp)
		}
	}
	fmt.Fprint(bw, "\n")

	fmt.Fprint(bw, "EDUCATION:\n")
	for _, edu := range record.Education {
		fmt.Fprintf(bw, "- %s from %s, %s\n", na(edu.Degree), na(edu.Institution), na(edu.GraduationDate))
		if edu.GPA != nil && *edu.GPA != "" {
			fmt.Fprintf(bw, "  GPA: %s\n", *edu.GPA)
		}
	}
	fmt.Fprint(bw, "\n")

	fmt.Fprint(bw, "CERTIFICATIONS:\n")
	for _, cert := range record.Certifications {
		line := "- " + cert.Name
		if cert.Name == "" {
			line = "- " + notAvailable
		}
		for _, opt := range []*string{cert.Authority, cert.Date} {
			if opt != nil && *opt != "" {
				line += ", " + *opt
			}
		}
		fmt.Fprintln(bw, line)
	}
	fmt.Fprint(bw, "\n")

	fmt.Fprint(bw, "PROJECTS:\n")
	for _, proj := range record.Projects {
		fmt.Fprintf(bw, "- %s\n", proj.Title)
		if proj.Description != "" {
			fmt.Fprintf(bw, "  %s\n", proj.Description)
		}
		if len(proj.Technologies) > 0 {
			fmt.Fprintf(bw, "  Technologies: %s\n", strings.Join(proj.Technologies, ", "))
		}
	}
	fmt.Fprint(bw, "\n")

	return bw.Flush()
}

// OutputFileName 由源文件名得到输出文件名: cv.pdf -> cv.json
func OutputFileName(sourceName string, format Format) string {
	base := filepath.Base(sourceName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "resume"
	}
	return base + "." + string(format)
}

// WriteRecordFile 写出 <dir>/<源文件基本名>.<format>，必要时创建目录，返回写出的路径
func WriteRecordFile(dir string, record *types.ResumeRecord, format Format) (string, error) {
	if record == nil {
		return "", fmt.Errorf("解析结果不能为空")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录 %s 失败: %w", dir, err)
	}
	data, err := Marshal(record, format)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, OutputFileName(record.FileName, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入输出文件 %s 失败: %w", path, err)
	}
	return path, nil
}
