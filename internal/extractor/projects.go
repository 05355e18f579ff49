package extractor

import (
	"regexp"
	"slices"
	"strings"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/types"
)

var (
	techLineRe = regexp.MustCompile(`(?i)technologies|tech stack|tools used|built with|developed using`)

	// 声明列表只取到行尾
	techDeclarationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Technologies used:[ \t]*([\w \t,.]+)`),
		regexp.MustCompile(`(?i)Tech Stack:[ \t]*([\w \t,.]+)`),
		regexp.MustCompile(`(?i)Tools:[ \t]*([\w \t,.]+)`),
		regexp.MustCompile(`(?i)Built with:[ \t]*([\w \t,.]+)`),
		regexp.MustCompile(`(?i)Developed using:[ \t]*([\w \t,.]+)`),
	}

	techSplitRe = regexp.MustCompile(`,|\sand\s`)
)

// ExtractProjects 首行为标题，其余非技术声明行组成描述
func ExtractProjects(section string) []types.ProjectEntry {
	entries := []types.ProjectEntry{}
	for _, block := range splitBlocks(section, blankLineSplitRe) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		title := strings.TrimSpace(lines[0])
		if title == "" {
			continue
		}
		entries = append(entries, types.ProjectEntry{
			Title:        title,
			Description:  projectDescription(lines[1:]),
			Technologies: projectTechnologies(block),
		})
	}
	return entries
}

func projectDescription(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if techLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, strings.TrimSpace(line))
	}
	return collapseWhitespace(strings.Join(kept, " "))
}

// projectTechnologies 先收集所有显式声明的技术栈；一个都没有时按词表扫描
func projectTechnologies(block string) []string {
	techs := []string{}
	for _, re := range techDeclarationRes {
		m := re.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		for _, t := range techSplitRe.Split(m[1], -1) {
			t = strings.TrimRight(strings.TrimSpace(t), ".")
			if t != "" && !slices.Contains(techs, t) {
				techs = append(techs, t)
			}
		}
	}
	if len(techs) > 0 {
		return techs
	}

	for _, t := range constants.TechnologyVocabulary {
		if containsWholeWord(block, t) {
			techs = append(techs, t)
		}
	}
	return techs
}
