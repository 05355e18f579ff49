package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// matcher 单条字段抽取规则，命中时返回抽取值
type matcher interface {
	find(text string) (string, bool)
}

// ruleChain 按优先级排列的规则，第一条命中的规则决定结果
type ruleChain []matcher

// first 依次尝试规则，全部落空时返回 nil
func (c ruleChain) first(text string) *string {
	for _, m := range c {
		if v, ok := m.find(text); ok {
			return &v
		}
	}
	return nil
}

// patternRule 正则 + 捕获组 + 可选的后处理
type patternRule struct {
	re        *regexp.Regexp
	group     int
	transform func(string) string
}

func (r patternRule) find(text string) (string, bool) {
	m := r.re.FindStringSubmatchIndex(text)
	if m == nil || 2*r.group+1 >= len(m) || m[2*r.group] < 0 {
		return "", false
	}
	v := strings.TrimSpace(text[m[2*r.group]:m[2*r.group+1]])
	if r.transform != nil {
		v = r.transform(v)
	}
	if v == "" {
		return "", false
	}
	return v, true
}

func rule(pattern string, group int) patternRule {
	return patternRule{re: regexp.MustCompile(pattern), group: group}
}

func ruleWith(pattern string, group int, transform func(string) string) patternRule {
	return patternRule{re: regexp.MustCompile(pattern), group: group, transform: transform}
}

// boundedRule 前导正则之后，在字符类 class 内扩展捕获，直到 stop 在捕获末尾处匹配。
// RE2 不支持前瞻断言，"名称后接 from/in/括号/行尾" 这类边界靠它表达。
// lazy 为 true 时取最短的合法捕获，否则取最长。
type boundedRule struct {
	lead  *regexp.Regexp
	class func(r rune) bool
	stop  *regexp.Regexp // 必须以 ^ 锚定
	lazy  bool
}

func (r boundedRule) find(text string) (string, bool) {
	for from := 0; from <= len(text); {
		loc := r.lead.FindStringIndex(text[from:])
		if loc == nil {
			return "", false
		}
		start := from + loc[1]
		if v, ok := r.captureAt(text, start); ok {
			return v, true
		}
		// 从前导匹配的下一个字符重新搜索
		_, size := utf8.DecodeRuneInString(text[from+loc[0]:])
		if size == 0 {
			size = 1
		}
		from += loc[0] + size
	}
	return "", false
}

func (r boundedRule) captureAt(text string, start int) (string, bool) {
	best := -1
	end := start
	for end < len(text) {
		c, size := utf8.DecodeRuneInString(text[end:])
		if !r.class(c) {
			break
		}
		end += size
		if r.stop.MatchString(text[end:]) {
			best = end
			if r.lazy {
				break
			}
		}
	}
	if best < 0 {
		return "", false
	}
	v := strings.TrimSpace(text[start:best])
	if v == "" {
		return "", false
	}
	return v, true
}

// literalRule 按列表顺序做区分大小写的子串查找，返回列表中的原文
type literalRule []string

func (l literalRule) find(text string) (string, bool) {
	for _, lit := range l {
		if strings.Contains(text, lit) {
			return lit, true
		}
	}
	return "", false
}

// nameClass 对应 [\w\s,.]
func nameClass(r rune) bool {
	return isWordRune(r) || isSpaceRune(r) || r == ',' || r == '.'
}

// wordSpaceClass 对应 [\w\s]
func wordSpaceClass(r rune) bool {
	return isWordRune(r) || isSpaceRune(r)
}

// isSpaceRune 对应 RE2 的 \s
func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r', '\v':
		return true
	}
	return false
}
