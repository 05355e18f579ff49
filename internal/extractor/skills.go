package extractor

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// 符号或项目符号引导、以逗号或句点结尾的词串
var delimitedSkillRe = regexp.MustCompile(`[•-]?\s*([A-Za-z+#]+(?:\s[A-Za-z+#]+)*)[,.]`)

// SkillsExtractor 三路技能识别：参考表、短语候选、分隔符词串
type SkillsExtractor struct {
	ref     ReferenceData
	phrases PhraseCapability
	logger  *log.Logger
}

// NewSkillsExtractor phrases 可为 nil，此时跳过短语候选这一路
func NewSkillsExtractor(ref ReferenceData, phrases PhraseCapability, logger *log.Logger) *SkillsExtractor {
	if ref == nil {
		ref = BuiltInReferenceData{}
	}
	return &SkillsExtractor{ref: ref, phrases: phrases, logger: logger}
}

// skillSet 大小写不敏感去重的累积列表，先出现的写法优先
type skillSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *skillSet) add(skill string) bool {
	key := strings.ToLower(skill)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, skill)
	return true
}

// Extract 返回排序后的技能列表
func (e *SkillsExtractor) Extract(ctx context.Context, section string) []string {
	if strings.TrimSpace(section) == "" {
		return []string{}
	}
	set := &skillSet{seen: make(map[string]struct{})}

	for _, skill := range e.ref.CommonSkills() {
		if containsWholeWord(section, skill) {
			set.add(skill)
		}
	}

	if e.phrases != nil {
		candidates, err := e.phrases.PhraseCandidates(ctx, section)
		if err != nil {
			logWarn(e.logger, "短语候选获取失败，跳过该路识别: %v", err)
		}
		for _, p := range candidates {
			p = strings.TrimSpace(p)
			if utf8.RuneCountInString(p) > 2 && !strings.ContainsFunc(p, unicode.IsDigit) {
				set.add(p)
			}
		}
	}

	for _, m := range delimitedSkillRe.FindAllStringSubmatch(section, -1) {
		token := strings.TrimSpace(m[1])
		if len(token) > 2 {
			set.add(token)
		}
	}

	sort.Strings(set.items)
	return set.items
}
