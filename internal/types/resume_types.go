package types

// SectionName 表示简历章节名称
type SectionName string

const (
	// SectionExperience 工作经历章节
	SectionExperience SectionName = "experience"
	// SectionEducation 教育经历章节
	SectionEducation SectionName = "education"
	// SectionSkills 技能章节
	SectionSkills SectionName = "skills"
	// SectionCertifications 证书章节
	SectionCertifications SectionName = "certifications"
	// SectionProjects 项目经历章节
	SectionProjects SectionName = "projects"
)

// Sections 章节的固定识别顺序
var Sections = []SectionName{
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionCertifications,
	SectionProjects,
}

// ContactInfo 联系方式，各字段独立可空
type ContactInfo struct {
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	LinkedIn *string `json:"linkedin"`
	GitHub   *string `json:"github"`
}

// ExperienceEntry 一段工作经历
type ExperienceEntry struct {
	JobTitle         *string  `json:"job_title"`
	Company          *string  `json:"company"`
	Dates            *string  `json:"dates"`
	Responsibilities []string `json:"responsibilities"`
}

// EducationEntry 一段教育经历
type EducationEntry struct {
	Degree         *string `json:"degree"`
	Institution    *string `json:"institution"`
	GraduationDate *string `json:"graduation_date"`
	GPA            *string `json:"gpa"`
}

// CertificationEntry 一项证书
type CertificationEntry struct {
	Name         string  `json:"name"`
	Authority    *string `json:"authority"`
	Date         *string `json:"date"`
	CredentialID *string `json:"credential_id"`
}

// ProjectEntry 一个项目
type ProjectEntry struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"` // 保持插入顺序，无重复
}

// ResumeRecord 一份简历的结构化解析结果
type ResumeRecord struct {
	FileName       string               `json:"file_name"`
	ContactInfo    ContactInfo          `json:"contact_info"`
	Skills         []string             `json:"skills"` // 大小写不敏感去重，字典序
	Experience     []ExperienceEntry    `json:"experience"`
	Education      []EducationEntry     `json:"education"`
	Certifications []CertificationEntry `json:"certifications"`
	Projects       []ProjectEntry       `json:"projects"`
}

// NewResumeRecord 创建一个集合字段均为空切片的记录，保证序列化为 [] 而不是 null
func NewResumeRecord(fileName string) *ResumeRecord {
	return &ResumeRecord{
		FileName:       fileName,
		Skills:         []string{},
		Experience:     []ExperienceEntry{},
		Education:      []EducationEntry{},
		Certifications: []CertificationEntry{},
		Projects:       []ProjectEntry{},
	}
}
