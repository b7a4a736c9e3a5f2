package domain

// Section names used across the guest store, editors and migration.
const (
	SectionPersonal         = "personal"
	SectionExperiences      = "experiences"
	SectionEducations       = "educations"
	SectionProjects         = "projects"
	SectionCertifications   = "certifications"
	SectionSkills           = "skills"
	SectionLanguages        = "languages"
	SectionInterests        = "interests"
	SectionOptimizedSummary = "optimizedSummary"
)

// ListSections are the whole-list replaced sections, in page order.
var ListSections = []string{
	SectionExperiences,
	SectionEducations,
	SectionProjects,
	SectionCertifications,
	SectionSkills,
	SectionLanguages,
	SectionInterests,
}

// Document is everything a guest has entered so far.
type Document struct {
	Personal         Personal        `json:"personal" yaml:"personal"`
	Experiences      []Experience    `json:"experiences,omitempty" yaml:"experiences,omitempty"`
	Educations       []Education     `json:"educations,omitempty" yaml:"educations,omitempty"`
	Projects         []Project       `json:"projects,omitempty" yaml:"projects,omitempty"`
	Certifications   []Certification `json:"certifications,omitempty" yaml:"certifications,omitempty"`
	Skills           []Skill         `json:"skills,omitempty" yaml:"skills,omitempty"`
	Languages        []Language      `json:"languages,omitempty" yaml:"languages,omitempty"`
	Interests        []Interest      `json:"interests,omitempty" yaml:"interests,omitempty"`
	OptimizedSummary string          `json:"optimizedSummary,omitempty" yaml:"optimizedSummary,omitempty"`
}

type Personal struct {
	FullName            string `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Email               string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone               string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location            string `json:"location,omitempty" yaml:"location,omitempty"`
	LinkedIn            string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	GitHub              string `json:"github,omitempty" yaml:"github,omitempty"`
	Portfolio           string `json:"portfolio,omitempty" yaml:"portfolio,omitempty"`
	ProfessionalTagline string `json:"professionalTagline,omitempty" yaml:"professionalTagline,omitempty"`
	Summary             string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

type Experience struct {
	ID          string `json:"id" yaml:"id"`
	Company     string `json:"company,omitempty" yaml:"company,omitempty"`
	Position    string `json:"position,omitempty" yaml:"position,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	StartDate   string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	IsCurrent   bool   `json:"isCurrent,omitempty" yaml:"isCurrent,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type Education struct {
	ID           string `json:"id" yaml:"id"`
	Institution  string `json:"institution,omitempty" yaml:"institution,omitempty"`
	Degree       string `json:"degree,omitempty" yaml:"degree,omitempty"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty" yaml:"fieldOfStudy,omitempty"`
	StartDate    string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	IsCurrent    bool   `json:"isCurrent,omitempty" yaml:"isCurrent,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
}

type Project struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	Technologies string `json:"technologies,omitempty" yaml:"technologies,omitempty"`
	StartDate    string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
}

type Certification struct {
	ID             string `json:"id" yaml:"id"`
	Title          string `json:"title,omitempty" yaml:"title,omitempty"`
	Issuer         string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	IssueDate      string `json:"issueDate,omitempty" yaml:"issueDate,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty" yaml:"expirationDate,omitempty"`
	CredentialID   string `json:"credentialId,omitempty" yaml:"credentialId,omitempty"`
	URL            string `json:"url,omitempty" yaml:"url,omitempty"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	DoesNotExpire  bool   `json:"doesNotExpire,omitempty" yaml:"doesNotExpire,omitempty"`
}

type Skill struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Level    string `json:"level,omitempty" yaml:"level,omitempty"`
}

type Language struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

type Interest struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Partial is a save request. A nil slice leaves the stored list alone; any
// non-nil slice, empty included, replaces it.
type Partial struct {
	Personal         *Personal       `json:"personal,omitempty"`
	Experiences      []Experience    `json:"experiences"`
	Educations       []Education     `json:"educations"`
	Projects         []Project       `json:"projects"`
	Certifications   []Certification `json:"certifications"`
	Skills           []Skill         `json:"skills"`
	Languages        []Language      `json:"languages"`
	Interests        []Interest      `json:"interests"`
	OptimizedSummary *string         `json:"optimizedSummary,omitempty"`
}

// PersonalPatch updates individual personal fields; nil fields are kept.
type PersonalPatch struct {
	FullName            *string `json:"fullName,omitempty"`
	Email               *string `json:"email,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	Location            *string `json:"location,omitempty"`
	LinkedIn            *string `json:"linkedin,omitempty"`
	GitHub              *string `json:"github,omitempty"`
	Portfolio           *string `json:"portfolio,omitempty"`
	ProfessionalTagline *string `json:"professionalTagline,omitempty"`
	Summary             *string `json:"summary,omitempty"`
}
