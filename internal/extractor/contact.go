package extractor

import "resume-parser-go/internal/types"

var (
	emailRules = ruleChain{
		rule(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`, 0),
	}
	phoneRules = ruleChain{
		rule(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`, 0),
		rule(`\+\d{1,3}[-.\s]?\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`, 0),
	}
	linkedInRules = ruleChain{
		rule(`(?i)linkedin\.com/in/[\w-]+`, 0),
		rule(`(?i)linkedin:\s*([\w-]+)`, 0),
	}
	gitHubRules = ruleChain{
		rule(`(?i)github\.com/[\w-]+`, 0),
		rule(`(?i)github:\s*([\w-]+)`, 0),
	}
)

// ExtractContactInfo 在全文中独立查找四项联系方式，未命中的字段为 nil
func ExtractContactInfo(text string) types.ContactInfo {
	return types.ContactInfo{
		Email:    emailRules.first(text),
		Phone:    phoneRules.first(text),
		LinkedIn: linkedInRules.first(text),
		GitHub:   gitHubRules.first(text),
	}
}
