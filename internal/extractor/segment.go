package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-parser-go/internal/types"
)

// SectionHeaders 某一章节的标题别名（小写）
type SectionHeaders struct {
	Name    types.SectionName
	Aliases []string
}

// DefaultSectionHeaders 默认标题表，顺序即识别优先级
var DefaultSectionHeaders = []SectionHeaders{
	{types.SectionExperience, []string{"experience", "work experience", "employment", "work history", "professional experience"}},
	{types.SectionEducation, []string{"education", "academic background", "academic history", "educational qualifications"}},
	{types.SectionSkills, []string{"skills", "technical skills", "competencies", "expertise", "core competencies"}},
	{types.SectionCertifications, []string{"certifications", "certificates", "professional certifications", "credentials"}},
	{types.SectionProjects, []string{"projects", "personal projects", "professional projects", "key projects"}},
}

// headerLikeMaxLen 短于该字符数的行视为像标题
const headerLikeMaxLen = 30

type compiledAlias struct {
	alias string
	word  *regexp.Regexp
}

type compiledHeaders struct {
	name    types.SectionName
	aliases []compiledAlias
}

// fallbackScan 兜底扫描：从关键词到下一个空行或文末
type fallbackScan struct {
	name    types.SectionName
	keyword *regexp.Regexp
}

var defaultFallbackScans = []fallbackScan{
	{types.SectionSkills, regexp.MustCompile(`(?i)(?:technical skills|skills|proficiencies)`)},
	{types.SectionExperience, regexp.MustCompile(`(?i)(?:work experience|experience|employment)`)},
	{types.SectionEducation, regexp.MustCompile(`(?i)(?:education|academic)`)},
}

// Segmenter 章节切分器，构造后只读
type Segmenter struct {
	headers []compiledHeaders
}

// NewSegmenter 编译标题表；headers 为空时使用默认表
func NewSegmenter(headers []SectionHeaders) *Segmenter {
	if len(headers) == 0 {
		headers = DefaultSectionHeaders
	}
	s := &Segmenter{headers: make([]compiledHeaders, 0, len(headers))}
	for _, h := range headers {
		ch := compiledHeaders{name: h.Name}
		for _, a := range h.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" {
				continue
			}
			ch.aliases = append(ch.aliases, compiledAlias{
				alias: a,
				word:  regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(a) + `\b`),
			})
		}
		s.headers = append(s.headers, ch)
	}
	return s
}

// Segment 逐行扫描识别章节标题，标题行本身不计入正文；首个标题之前的内容丢弃。
// 同名章节多次出现时以最后一次的正文为准。一个章节都没识别到时走关键词兜底扫描。
func (s *Segmenter) Segment(text string) map[types.SectionName]string {
	sections := make(map[types.SectionName]string)
	var (
		current types.SectionName
		open    bool
		buf     []string
	)

	flush := func() {
		if !open {
			return
		}
		sections[current] = strings.Join(buf, "\n")
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if name, ok := s.matchHeader(line); ok {
			flush()
			current, open, buf = name, true, nil
			continue
		}
		if open {
			buf = append(buf, line)
		}
	}
	flush()

	if len(sections) == 0 {
		return fallbackSegment(text)
	}
	return sections
}

func (s *Segmenter) matchHeader(line string) (types.SectionName, bool) {
	lower := strings.ToLower(line)
	upper := isUpperLine(line)
	headerLike := upper || isTitleLine(line) || strings.HasSuffix(line, ":") ||
		utf8.RuneCountInString(line) < headerLikeMaxLen

	for _, h := range s.headers {
		for _, a := range h.aliases {
			if lower == a.alias || lower == a.alias+":" {
				return h.name, true
			}
			if upper && strings.Contains(lower, a.alias) {
				return h.name, true
			}
			if headerLike && a.word.MatchString(lower) {
				return h.name, true
			}
		}
	}
	return "", false
}

func fallbackSegment(text string) map[types.SectionName]string {
	sections := make(map[types.SectionName]string)
	for _, scan := range defaultFallbackScans {
		loc := scan.keyword.FindStringIndex(text)
		if loc == nil {
			continue
		}
		end := len(text)
		if i := strings.Index(text[loc[1]:], "\n\n"); i >= 0 {
			end = loc[1] + i
		}
		sections[scan.name] = text[loc[0]:end]
	}
	return sections
}

var defaultSegmenter = NewSegmenter(nil)

// Segment 使用默认标题表切分
func Segment(text string) map[types.SectionName]string {
	return defaultSegmenter.Segment(text)
}
