package constants

// BuiltInCommonSkills 技能参考文件缺失时使用的内置技能表（小写）
var BuiltInCommonSkills = []string{
	"python", "java", "javascript", "html", "css", "react", "angular", "node.js",
	"sql", "git", "agile", "scrum", "project management", "leadership",
	"communication", "aws", "azure", "docker", "kubernetes", "machine learning",
	"data analysis", "excel", "powerpoint", "word", "tensorflow", "pytorch",
	"c++", "c#", "php", "ruby", "swift", "kotlin", "typescript", "rust", "golang",
	"scala", "r", "django", "flask", "spring boot", "laravel", "ruby on rails",
}

// BuiltInJobTitles 职位参考文件缺失时使用的内置职位表
var BuiltInJobTitles = []string{
	"Software Engineer", "Senior Developer", "Frontend Developer", "Backend Developer",
	"Full Stack Developer", "Data Scientist", "Product Manager", "Project Manager",
	"UX Designer", "UI Designer", "DevOps Engineer", "QA Engineer", "Test Engineer",
	"Machine Learning Engineer", "Data Analyst", "Research Scientist", "IT Specialist",
	"Network Administrator", "Systems Administrator", "Database Administrator",
	"Business Analyst", "Technical Writer", "Scrum Master", "Agile Coach",
	"CTO", "CEO", "CIO", "VP of Engineering", "Director of Technology",
}

// TechnologyVocabulary 项目技术栈兜底扫描用的词表，按此顺序收集
var TechnologyVocabulary = []string{
	"Python", "Java", "JavaScript", "TypeScript", "C++", "C#", "PHP", "Ruby",
	"HTML", "CSS", "SQL", "React", "Angular", "Vue", "Node.js", "Express",
	"Django", "Flask", "Spring", "Laravel", "Rails", "MongoDB", "PostgreSQL", "MySQL",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Git", "TensorFlow", "PyTorch",
	"Pandas", "NumPy", "Sklearn",
}

// CertificationKeywords 证书名称关键词
var CertificationKeywords = []string{
	"Certified", "Professional", "Specialist", "Expert", "Associate",
	"Certificate", "Certification", "Diploma", "License",
}

// CertificationProviders 常见发证机构，作为颁发机构的最后兜底
var CertificationProviders = []string{
	"Microsoft", "AWS", "Amazon", "Google", "Oracle", "Cisco", "CompTIA",
	"PMI", "Scrum Alliance", "Salesforce", "Adobe", "IBM", "Apple", "SAP",
}

// WellKnownInstitutions 无显式 University/College 字样时识别的院校名
var WellKnownInstitutions = []string{
	"Stanford", "Harvard", "MIT", "Yale", "Princeton", "Oxford", "Cambridge", "Berkeley", "UCLA",
}
