package extractor

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/constants"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "无法写入临时文件")
	return path
}

func TestLoadFileBackedReferenceData(t *testing.T) {
	dir := t.TempDir()
	skills := writeTempFile(t, dir, "skills.json", `["go", "rust"]`)
	titles := writeTempFile(t, dir, "titles.json", `["Platform Engineer"]`)

	ref, err := LoadFileBackedReferenceData(skills, titles)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, ref.CommonSkills())
	assert.Equal(t, []string{"Platform Engineer"}, ref.KnownJobTitles())
}

func TestLoadFileBackedReferenceData_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := writeTempFile(t, dir, "skills.json", `{"not": "a list"`)
	titles := writeTempFile(t, dir, "titles.json", `["CTO"]`)

	_, err := LoadFileBackedReferenceData(corrupt, titles)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReferenceData))
	var refErr *ReferenceDataError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, ReferenceSkills, refErr.Kind)

	_, err = LoadFileBackedReferenceData(filepath.Join(dir, "missing.json"), titles)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "应保留底层文件错误")
}

func TestResolveReferenceData_FallsBackPerList(t *testing.T) {
	dir := t.TempDir()
	titles := writeTempFile(t, dir, "titles.json", `["Platform Engineer"]`)

	var buf bytes.Buffer
	ref := ResolveReferenceData(filepath.Join(dir, "missing.json"), titles, log.New(&buf, "", 0))

	assert.Equal(t, constants.BuiltInCommonSkills, ref.CommonSkills(), "缺失的技能文件回退到内置列表")
	assert.Equal(t, []string{"Platform Engineer"}, ref.KnownJobTitles())
	assert.True(t, strings.HasPrefix(buf.String(), "[WARN] "), "回退警告应带 [WARN] 前缀: %q", buf.String())
	assert.Contains(t, buf.String(), "回退到内置列表")
}

func TestResolveReferenceData_BuiltIn(t *testing.T) {
	ref := ResolveReferenceData("", "", nil)
	assert.IsType(t, BuiltInReferenceData{}, ref)
	assert.Equal(t, constants.BuiltInJobTitles, ref.KnownJobTitles())
}
