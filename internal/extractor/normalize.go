package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	newlineRunRe      = regexp.MustCompile(`\n(?:[ ]*\n)+`)
)

// bulletGlyphs 归一化时强制换行的项目符号
const bulletGlyphs = "•◦○■●"

// headerSynonym 标题同义词改写规则
type headerSynonym struct {
	pattern     *regexp.Regexp
	replacement string
}

var headerSynonyms = []headerSynonym{
	{regexp.MustCompile(`(?i)\bWORK\s+EXPERIENCE\b`), "EXPERIENCE"},
	{regexp.MustCompile(`(?i)\bPROFESSIONAL\s+EXPERIENCE\b`), "EXPERIENCE"},
	{regexp.MustCompile(`(?i)\bACADEMIC\s+BACKGROUND\b`), "EDUCATION"},
	{regexp.MustCompile(`(?i)\bEDUCATIONAL\s+QUALIFICATIONS\b`), "EDUCATION"},
	{regexp.MustCompile(`(?i)\bTECHNICAL\s+SKILLS\b`), "SKILLS"},
	{regexp.MustCompile(`(?i)\bCORE\s+COMPETENCIES\b`), "SKILLS"},
	{regexp.MustCompile(`(?i)\bPROFESSIONAL\s+CERTIFICATIONS\b`), "CERTIFICATIONS"},
	{regexp.MustCompile(`(?i)\bPERSONAL\s+PROJECTS\b`), "PROJECTS"},
}

// Normalize 规整简历文本：压缩空白与空行、项目符号独占一行、统一章节标题写法。
// 对已归一化的文本再次调用结果不变。
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalSpaceRe.ReplaceAllString(text, " ")
	text = newlineRunRe.ReplaceAllString(text, "\n")
	text = breakBeforeBullets(text)
	text = rewriteHeaderSynonyms(text)

	return strings.TrimSpace(text)
}

// breakBeforeBullets 在每个项目符号前插入换行（已在行首则不插入）
func breakBeforeBullets(text string) string {
	if !strings.ContainsAny(text, bulletGlyphs) {
		return text
	}

	out := make([]byte, 0, len(text)+16)
	for _, r := range text {
		if strings.ContainsRune(bulletGlyphs, r) {
			for len(out) > 0 && out[len(out)-1] == ' ' {
				out = out[:len(out)-1]
			}
			if len(out) > 0 && out[len(out)-1] != '\n' {
				out = append(out, '\n')
			}
		}
		out = utf8.AppendRune(out, r)
	}
	return string(out)
}

func rewriteHeaderSynonyms(text string) string {
	for {
		before := text
		for _, syn := range headerSynonyms {
			text = syn.pattern.ReplaceAllString(text, syn.replacement)
		}
		if text == before {
			return text
		}
	}
}
