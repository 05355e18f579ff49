package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"

	"resume-parser-go/internal/constants"
)

// ReferenceData 技能与职位参考表。实现在构造后只读。
type ReferenceData interface {
	CommonSkills() []string
	KnownJobTitles() []string
}

// ReferenceKind 参考表类别
type ReferenceKind string

const (
	ReferenceSkills    ReferenceKind = "skills"
	ReferenceJobTitles ReferenceKind = "job_titles"
)

// ErrReferenceData 参考数据不可用
var ErrReferenceData = errors.New("参考数据加载失败")

// ReferenceDataError 参考文件缺失或内容损坏
type ReferenceDataError struct {
	Path string
	Kind ReferenceKind
	Err  error
}

func (e *ReferenceDataError) Error() string {
	return fmt.Sprintf("%v: %s (%s): %v", ErrReferenceData, e.Kind, e.Path, e.Err)
}

func (e *ReferenceDataError) Unwrap() error { return e.Err }

func (e *ReferenceDataError) Is(target error) bool { return target == ErrReferenceData }

// BuiltInReferenceData 内置参考表
type BuiltInReferenceData struct{}

var _ ReferenceData = BuiltInReferenceData{}

func (BuiltInReferenceData) CommonSkills() []string   { return constants.BuiltInCommonSkills }
func (BuiltInReferenceData) KnownJobTitles() []string { return constants.BuiltInJobTitles }

// FileBackedReferenceData 从 JSON 字符串数组文件加载的参考表
type FileBackedReferenceData struct {
	skills    []string
	jobTitles []string
}

var _ ReferenceData = (*FileBackedReferenceData)(nil)

func (f *FileBackedReferenceData) CommonSkills() []string   { return f.skills }
func (f *FileBackedReferenceData) KnownJobTitles() []string { return f.jobTitles }

// LoadFileBackedReferenceData 严格加载两个参考文件，任一失败即返回 *ReferenceDataError
func LoadFileBackedReferenceData(skillsPath, jobTitlesPath string) (*FileBackedReferenceData, error) {
	skills, err := loadStringList(skillsPath, ReferenceSkills)
	if err != nil {
		return nil, err
	}
	titles, err := loadStringList(jobTitlesPath, ReferenceJobTitles)
	if err != nil {
		return nil, err
	}
	return &FileBackedReferenceData{skills: skills, jobTitles: titles}, nil
}

func loadStringList(path string, kind ReferenceKind) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReferenceDataError{Path: path, Kind: kind, Err: err}
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &ReferenceDataError{Path: path, Kind: kind, Err: fmt.Errorf("解析JSON失败: %w", err)}
	}
	return slices.Clip(list), nil
}

// ResolveReferenceData 按配置路径加载参考表。路径为空的一类直接用内置表；
// 文件缺失或损坏时该类回退到内置表并记录警告，不会返回错误。
func ResolveReferenceData(skillsPath, jobTitlesPath string, logger *log.Logger) ReferenceData {
	if skillsPath == "" && jobTitlesPath == "" {
		return BuiltInReferenceData{}
	}

	resolve := func(path string, kind ReferenceKind, builtin []string) []string {
		if path == "" {
			return builtin
		}
		list, err := loadStringList(path, kind)
		if err != nil {
			logWarn(logger, "%v，回退到内置列表", err)
			return builtin
		}
		return list
	}

	return &FileBackedReferenceData{
		skills:    resolve(skillsPath, ReferenceSkills, constants.BuiltInCommonSkills),
		jobTitles: resolve(jobTitlesPath, ReferenceJobTitles, constants.BuiltInJobTitles),
	}
}
