package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	numberedItemRe = regexp.MustCompile(`^\d+\.\s`)
	leadingUpperRe = regexp.MustCompile(`^[A-Z]`)
)

// responsibilityMarkers 职责条目的项目符号
const responsibilityMarkers = "•-○■"

// responsibilityList 逐行扫描时的状态：是否处于列表上下文，以及已收集的条目
type responsibilityList struct {
	inBulletList bool
	items        []string
}

func (l *responsibilityList) push(item string) {
	l.items = append(l.items, item)
	l.inBulletList = true
}

func (l *responsibilityList) appendToLast(fragment string) {
	if len(l.items) == 0 {
		return
	}
	l.items[len(l.items)-1] += " " + fragment
}

// feed 处理一行（已去除首尾空白且非空）
func (l *responsibilityList) feed(line string) {
	first, size := utf8.DecodeRuneInString(line)

	switch {
	case strings.ContainsRune(responsibilityMarkers, first):
		l.push(strings.TrimSpace(line[size:]))
	case l.inBulletList && (unicode.IsLower(first) || strings.HasPrefix(line, "and ")):
		l.appendToLast(line)
	case numberedItemRe.MatchString(line):
		l.push(strings.TrimSpace(line[strings.IndexByte(line, '.')+1:]))
	case l.inBulletList && leadingUpperRe.MatchString(line) && len(strings.Fields(line)) > 3:
		l.push(line)
	}
}

// ExtractResponsibilities 从一段经历中聚合职责描述：项目符号或编号开启新条目，
// 小写或 "and " 开头的行接续上一条，列表中无符号的长句视为新条目，其余行丢弃。
func ExtractResponsibilities(block string) []string {
	list := &responsibilityList{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		list.feed(line)
	}
	if list.items == nil {
		return []string{}
	}
	return list.items
}
