package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	blankLineSplitRe = regexp.MustCompile(`\n\n+`)
	newlineSplitRe   = regexp.MustCompile(`\n+`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)
)

// isUpperLine 至少含一个有大小写的字符，且不含小写字母
func isUpperLine(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			cased = true
		}
	}
	return cased
}

// isTitleLine 每个单词首字母大写、其余字母小写
func isTitleLine(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

func isWordRune(r rune) bool {
	return r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// containsWholeWord 大小写不敏感地查找 needle，两端为单词字符时要求词边界。
// 与 \b 拼接不同，C++、C#、Node.js 这类以符号结尾的词也能命中。
func containsWholeWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	h := strings.ToLower(haystack)
	n := strings.ToLower(needle)
	first, _ := utf8.DecodeRuneInString(n)
	last, _ := utf8.DecodeLastRuneInString(n)

	for offset := 0; offset <= len(h)-len(n); {
		idx := strings.Index(h[offset:], n)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(n)

		ok := true
		if isWordRune(first) && start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(h[:start])
			ok = !isWordRune(prev)
		}
		if ok && isWordRune(last) && end < len(h) {
			next, _ := utf8.DecodeRuneInString(h[end:])
			ok = !isWordRune(next)
		}
		if ok {
			return true
		}
		_, size := utf8.DecodeRuneInString(h[start:])
		offset = start + size
	}
	return false
}

// splitBlocks 按分隔正则切分并丢弃空块
func splitBlocks(text string, sep *regexp.Regexp) []string {
	var blocks []string
	for _, part := range sep.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(s, " "))
}
