package extractor

import (
	"regexp"
	"strings"

	"resume-parser-go/internal/types"
)

const monthAlt = `(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)`

var (
	companyStopRe = regexp.MustCompile(`(?i)^(?:\s+from|\s+in|\s+\(|\s*\n|\s*$)`)

	companyRules = ruleChain{
		boundedRule{lead: regexp.MustCompile(`(?i)\bat\s+`), class: nameClass, stop: companyStopRe, lazy: true},
		boundedRule{lead: regexp.MustCompile(`(?i)\bfor\s+`), class: nameClass, stop: companyStopRe, lazy: true},
		boundedRule{lead: regexp.MustCompile(`(?i)\bwith\s+`), class: nameClass, stop: companyStopRe, lazy: true},
		boundedRule{lead: regexp.MustCompile(`@\s*`), class: nameClass, stop: companyStopRe, lazy: true},
		rule(`([\w\s,.]+?)\s+(?:Inc\.|LLC|Ltd\.?|Corp\.?|Corporation|Company|GmbH)`, 0),
	}

	employmentDateRules = ruleChain{
		rule(`(?i)`+monthAlt+`[a-z]*[\s,]+\d{4}\s*(-|–|to)\s*`+monthAlt+`[a-z]*[\s,]+\d{4}`, 0),
		rule(`(?i)(\d{4})\s*(-|–|to)\s*(\d{4}|Present|Current)`, 0),
		rule(`(?i)`+monthAlt+`[a-z]*[\s,]+\d{4}\s*(-|–|to)\s*(Present|Current)`, 0),
		rule(`(?i)\((\d{4})\s*(-|–|to)\s*(\d{4}|Present|Current)\)`, 0),
	}

	genericTitleRules = ruleChain{
		rule(`(.*?Engineer|.*?Developer|.*?Manager|.*?Director|.*?Analyst|.*?Designer|.*?Specialist|.*?Coordinator|.*?Assistant|.*?Intern)`, 1),
		rule(`^([A-Z][a-z]+(?: [A-Z][a-z]+)*)`, 1),
	}
)

// ExperienceExtractor 工作经历抽取器。构造后只读，可被多个 goroutine 共享。
type ExperienceExtractor struct {
	titleRules ruleChain
}

// NewExperienceExtractor 用参考职位表编译职位匹配规则
func NewExperienceExtractor(ref ReferenceData) *ExperienceExtractor {
	var rules ruleChain
	if known := knownTitlePattern(ref.KnownJobTitles()); known != nil {
		rules = append(rules, patternRule{re: known, group: 1})
	}
	rules = append(rules, genericTitleRules...)
	return &ExperienceExtractor{titleRules: rules}
}

// knownTitlePattern 把职位表拼成一个大小写不敏感的多选正则，列表为空时返回 nil
func knownTitlePattern(titles []string) *regexp.Regexp {
	alts := make([]string, 0, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		alts = append(alts, wordBounded(t))
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(alts, "|") + `)`)
}

// wordBounded 转义字面量，并在以单词字符开头或结尾的一侧加 \b
func wordBounded(lit string) string {
	p := regexp.QuoteMeta(lit)
	if isWordRune(rune(lit[0])) {
		p = `\b` + p
	}
	if isWordRune(rune(lit[len(lit)-1])) {
		p += `\b`
	}
	return p
}

// Extract 按空行切分条目，逐条抽取职位、公司、时间与职责。
// 职位和公司都缺失的条目被丢弃。
func (e *ExperienceExtractor) Extract(section string) []types.ExperienceEntry {
	entries := []types.ExperienceEntry{}
	for _, block := range splitBlocks(section, blankLineSplitRe) {
		entry := types.ExperienceEntry{
			JobTitle:         e.titleRules.first(block),
			Company:          companyRules.first(block),
			Dates:            employmentDateRules.first(block),
			Responsibilities: ExtractResponsibilities(block),
		}
		if entry.JobTitle == nil && entry.Company == nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
