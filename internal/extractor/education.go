package extractor

import (
	"strings"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/types"
)

const degreeFields = `(Engineering|Science|Arts|Commerce|Business|Administration|Technology|Computer Science|Economics|Finance|Mathematics|Physics)`

var (
	degreeRules = ruleChain{
		rule(`(?i)(Bachelor|Master|PhD|Doctorate|Associate).+?(of|in|'s in|'s of).+?`+degreeFields, 0),
		rule(`(?i)(B\.S\.|M\.S\.|B\.A\.|M\.A\.|B\.Tech|M\.Tech|B\.E\.|M\.E\.|Ph\.D\.|M\.B\.A\.|B\.B\.A\.).+?`+degreeFields, 0),
		rule(`(?i)(Bachelor|Master|PhD|Doctorate|Associate)'s degree`, 0),
		ruleWith(`(?i)Major in (Computer Science|Engineering|Business|Economics|Finance|Mathematics|Physics)`, 1,
			func(field string) string { return "Degree in " + field }),
	}

	institutionRules = ruleChain{
		rule(`(?i)(University|College|Institute|School) of [\w\s]+`, 0),
		rule(`(?i)[\w\s]+ (University|College|Institute|School)`, 0),
		rule(`(?i)(`+strings.Join(constants.WellKnownInstitutions, "|")+`)`, 0),
	}

	// 关键词形式只取年份
	graduationDateRules = ruleChain{
		rule(`(?i)`+monthAlt+`[a-z]*[\s,]+\d{4}`, 0),
		rule(`(?i)(Graduated|Completed|Finished|Class of|Expected|Exp)[\s:]+(\d{4})`, 2),
		rule(`(?i)\b(20\d{2}|19\d{2})\b`, 0),
	}

	gpaRules = ruleChain{
		rule(`(?i)GPA[:\s]+(\d+\.\d+)`, 1),
		rule(`(?i)Grade Point Average[:\s]+(\d+\.\d+)`, 1),
		rule(`(?i)G\.P\.A\.?[:\s]+(\d+\.\d+)`, 1),
		rule(`(?i)GPA of (\d+\.\d+)`, 1),
		rule(`(?i)(\d+\.\d+)/4\.0`, 1),
	}
)

// ExtractEducation 抽取教育经历，学位和院校都缺失的条目被丢弃
func ExtractEducation(section string) []types.EducationEntry {
	entries := []types.EducationEntry{}
	for _, block := range splitBlocks(section, blankLineSplitRe) {
		entry := types.EducationEntry{
			Degree:         degreeRules.first(block),
			Institution:    institutionRules.first(block),
			GraduationDate: graduationDateRules.first(block),
			GPA:            gpaRules.first(block),
		}
		if entry.Degree == nil && entry.Institution == nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
