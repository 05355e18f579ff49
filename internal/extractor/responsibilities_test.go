package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractResponsibilities(t *testing.T) {
	testCases := []struct {
		name     string
		block    string
		expected []string
	}{
		{
			name:     "续行合并",
			block:    "• Led a team of 5\nand delivered on time\n• Improved performance",
			expected: []string{"Led a team of 5 and delivered on time", "Improved performance"},
		},
		{
			name:     "小写续行",
			block:    "- Designed the billing pipeline\nreducing costs by 20%",
			expected: []string{"Designed the billing pipeline reducing costs by 20%"},
		},
		{
			name:     "编号列表",
			block:    "1. Designed APIs\n2. Wrote tests",
			expected: []string{"Designed APIs", "Wrote tests"},
		},
		{
			name:     "列表中的无符号长句",
			block:    "■ Built X\nMentored three junior engineers weekly",
			expected: []string{"Built X", "Mentored three junior engineers weekly"},
		},
		{
			name:     "列表外的行被丢弃",
			block:    "Software Engineer at Acme\nJan 2020 - Dec 2021\n○ Built APIs\nShort line",
			expected: []string{"Built APIs"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractResponsibilities(tc.block))
		})
	}
}

func TestExtractResponsibilities_Empty(t *testing.T) {
	got := ExtractResponsibilities("Software Engineer\nAcme")
	assert.NotNil(t, got, "结果应为空切片而不是 nil")
	assert.Empty(t, got)
}
