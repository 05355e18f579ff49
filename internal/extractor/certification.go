package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/types"
)

// maxCertificationNameLen 兜底名称的最大字符数
const maxCertificationNameLen = 100

var (
	certificationKeywordRules = func() []patternRule {
		rules := make([]patternRule, 0, len(constants.CertificationKeywords))
		for _, kw := range constants.CertificationKeywords {
			rules = append(rules, rule(regexp.QuoteMeta(kw)+`[\w\s]+`, 0))
		}
		return rules
	}()

	authorityRules = ruleChain{
		rule(`(?i)(issued|provided|awarded|offered|certified) by\s+([\w\s]+)`, 2),
		rule(`(?i)from\s+([\w\s]+)`, 1),
		boundedRule{
			lead:  regexp.MustCompile(`(?i)by\s+`),
			class: nameClass,
			stop:  regexp.MustCompile(`(?i)^(?:\s+in|\s+on|\s+\(|\s*$)`),
		},
		boundedRule{
			lead:  regexp.MustCompile(`-\s+`),
			class: wordSpaceClass,
			stop:  regexp.MustCompile(`(?i)^(?:\s+\d{4}|\s+certification)`),
		},
		literalRule(constants.CertificationProviders),
	}

	certificationDateRules = ruleChain{
		rule(`(?i)`+monthAlt+`[a-z]*[\s,]+\d{4}`, 0),
		rule(`(?i)(Issued|Received|Completed|Earned|Certified)[\s:]+in[\s:]+(\d{4})`, 2),
		rule(`(?i)\b(20\d{2}|19\d{2})\b`, 0),
	}

	credentialIDRules = ruleChain{
		rule(`(?i)ID[\s:]+([A-Za-z0-9-]+)`, 1),
		rule(`(?i)Credential ID[\s:]+([A-Za-z0-9-]+)`, 1),
		rule(`(?i)Certificate ID[\s:]+([A-Za-z0-9-]+)`, 1),
		rule(`(?i)Certification Number[\s:]+([A-Za-z0-9-]+)`, 1),
		rule(`(?i)#([A-Za-z0-9-]+)`, 1),
	}
)

// ExtractCertifications 每个非空行是一项证书，名称为空的行被丢弃
func ExtractCertifications(section string) []types.CertificationEntry {
	entries := []types.CertificationEntry{}
	for _, line := range splitBlocks(section, newlineSplitRe) {
		line = strings.TrimSpace(line)
		name := certificationName(line)
		if name == "" {
			continue
		}
		entries = append(entries, types.CertificationEntry{
			Name:         name,
			Authority:    authorityRules.first(line),
			Date:         certificationDateRules.first(line),
			CredentialID: credentialIDRules.first(line),
		})
	}
	return entries
}

// certificationName 逗号前的部分；否则是关键词开头的词组；否则是首句，超长截断
func certificationName(entry string) string {
	if i := strings.IndexByte(entry, ','); i >= 0 {
		return strings.TrimSpace(entry[:i])
	}

	for i, kw := range constants.CertificationKeywords {
		if !strings.Contains(entry, kw) {
			continue
		}
		if v, ok := certificationKeywordRules[i].find(entry); ok {
			return v
		}
	}

	first := entry
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if i := strings.IndexByte(first, '.'); i >= 0 {
		first = first[:i]
	}
	if utf8.RuneCountInString(first) > maxCertificationNameLen {
		return strings.TrimSpace(string([]rune(first)[:maxCertificationNameLen])) + "..."
	}
	return strings.TrimSpace(first)
}
