package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCertifications(t *testing.T) {
	section := "AWS Certified Solutions Architect, Amazon Web Services, 2021\n\n" +
		"Certified Kubernetes Administrator issued by CNCF in March 2022 Credential ID: CKA-1234\n"

	entries := ExtractCertifications(section)
	require.Len(t, entries, 2, "每个非空行是一项证书")

	first := entries[0]
	assert.Equal(t, "AWS Certified Solutions Architect", first.Name, "有逗号时取逗号前部分")
	require.NotNil(t, first.Authority)
	assert.Equal(t, "AWS", *first.Authority, "无显式机构时按常见机构列表兜底")
	require.NotNil(t, first.Date)
	assert.Equal(t, "2021", *first.Date)
	assert.Nil(t, first.CredentialID)

	second := entries[1]
	assert.True(t, strings.HasPrefix(second.Name, "Certified Kubernetes Administrator"), "关键词词组作为名称")
	require.NotNil(t, second.Authority)
	assert.Equal(t, "CNCF in March 2022 Credential ID", *second.Authority, "动词 by 形式只返回机构名")
	require.NotNil(t, second.Date)
	assert.Equal(t, "March 2022", *second.Date)
	require.NotNil(t, second.CredentialID)
	assert.Equal(t, "CKA-1234", *second.CredentialID)
}

func TestAuthorityRules(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Scrum Master Certification from Scrum Alliance", "Scrum Alliance"},
		{"Data Engineering Professional by Example Org (2020)", "Example Org"},
		{"Google Analytics - Google 2020", "Google"},
		{"Azure Fundamentals Microsoft", "Microsoft"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got := authorityRules.first(tc.input)
			require.NotNil(t, got)
			assert.Equal(t, tc.expected, *got)
		})
	}

	assert.Nil(t, authorityRules.first("First Aid"))
}

func TestCertificationDateAndID(t *testing.T) {
	got := certificationDateRules.first("Earned in 2017")
	require.NotNil(t, got)
	assert.Equal(t, "2017", *got, "关键词形式只返回年份")

	got = certificationDateRules.first("PMP 1999 renewal")
	require.NotNil(t, got)
	assert.Equal(t, "1999", *got)

	got = credentialIDRules.first("License #AB-99")
	require.NotNil(t, got)
	assert.Equal(t, "AB-99", *got)
}

func TestCertificationName_Fallback(t *testing.T) {
	long := strings.Repeat("x", 150)
	assert.Equal(t, strings.Repeat("x", 100)+"...", certificationName(long), "超过100字符应截断并加省略号")

	exact := strings.Repeat("y", 100)
	assert.Equal(t, exact, certificationName(exact), "恰好100字符不截断")

	assert.Equal(t, "First Aid training", certificationName("First Aid training. Renewed yearly"), "取第一句")
}

func TestExtractCertifications_Empty(t *testing.T) {
	entries := ExtractCertifications(" \n\n ")
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
