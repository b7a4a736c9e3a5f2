package service

import (
	"fmt"
	"strings"

	guestdomain "github.com/resumeforge/resume-builder-backend/internal/guest/domain"
	"github.com/resumeforge/resume-builder-backend/internal/resumeapi"
)

const (
	defaultResumeTitle = "My Resume"
	maxSummaryRunes    = 300
)

// Plan is a guest document converted to resume API payloads.
type Plan struct {
	Resume           resumeapi.Payload
	Personal         resumeapi.Payload
	Tagline          string
	OptimizedSummary string
	Lists            []ListPlan
}

// ListPlan holds the surviving entries of one list section.
type ListPlan struct {
	Section  string
	Singular string
	Plural   string
	Items    []resumeapi.Payload
	Dropped  int
}

// Label is the progress text reported when the section finishes.
func (l ListPlan) Label() string {
	noun := l.Plural
	if len(l.Items) == 1 {
		noun = l.Singular
	}
	return fmt.Sprintf("Saved %d %s", len(l.Items), noun)
}

// BuildPlan maps a guest document onto resume API payloads. Entries that miss
// a required field are counted as dropped and never sent.
func BuildPlan(doc guestdomain.Document) Plan {
	p := doc.Personal
	tagline := firstNonBlank(p.ProfessionalTagline, p.Summary)

	plan := Plan{
		Resume:           resumeapi.Payload{},
		Personal:         resumeapi.Payload{},
		Tagline:          truncateRunes(strings.TrimSpace(tagline), maxSummaryRunes),
		OptimizedSummary: strings.TrimSpace(doc.OptimizedSummary),
	}

	put(plan.Resume, "title", firstNonBlank(p.FullName, defaultResumeTitle))
	put(plan.Resume, "professional_tagline", tagline)
	put(plan.Resume, "optimized_summary", doc.OptimizedSummary)

	put(plan.Personal, "full_name", p.FullName)
	put(plan.Personal, "email", p.Email)
	put(plan.Personal, "phone", p.Phone)
	put(plan.Personal, "location", p.Location)
	put(plan.Personal, "linkedin", p.LinkedIn)
	put(plan.Personal, "github", p.GitHub)
	put(plan.Personal, "portfolio", p.Portfolio)

	plan.Lists = []ListPlan{
		convert(guestdomain.SectionExperiences, "work experience", "work experiences", doc.Experiences, experiencePayload),
		convert(guestdomain.SectionEducations, "education", "educations", doc.Educations, educationPayload),
		convert(guestdomain.SectionProjects, "project", "projects", doc.Projects, projectPayload),
		convert(guestdomain.SectionCertifications, "certification", "certifications", doc.Certifications, certificationPayload),
		convert(guestdomain.SectionSkills, "skill", "skills", doc.Skills, skillPayload),
		convert(guestdomain.SectionLanguages, "language", "languages", doc.Languages, languagePayload),
		convert(guestdomain.SectionInterests, "interest", "interests", doc.Interests, interestPayload),
	}
	return plan
}

// CreationCalls counts the per-entry creation calls the plan will issue.
func (p Plan) CreationCalls() int {
	n := 0
	for _, l := range p.Lists {
		n += len(l.Items)
	}
	return n
}

type qualifier interface {
	Qualifies() bool
}

func convert[T qualifier](section, singular, plural string, items []T, mapFn func(T, int) resumeapi.Payload) ListPlan {
	lp := ListPlan{Section: section, Singular: singular, Plural: plural}
	for _, item := range items {
		if !item.Qualifies() {
			lp.Dropped++
			continue
		}
		lp.Items = append(lp.Items, mapFn(item, len(lp.Items)))
	}
	return lp
}

func experiencePayload(e guestdomain.Experience, order int) resumeapi.Payload {
	out := resumeapi.Payload{"is_current": e.IsCurrent, "order": order}
	put(out, "company", e.Company)
	put(out, "position", e.Position)
	put(out, "location", e.Location)
	put(out, "start_date", e.StartDate)
	put(out, "end_date", e.EndDate)
	put(out, "description", e.Description)
	return out
}

func educationPayload(e guestdomain.Education, order int) resumeapi.Payload {
	out := resumeapi.Payload{"is_current": e.IsCurrent, "order": order}
	put(out, "institution", e.Institution)
	put(out, "degree", e.Degree)
	put(out, "field_of_study", e.FieldOfStudy)
	put(out, "start_date", e.StartDate)
	put(out, "end_date", e.EndDate)
	put(out, "description", e.Description)
	return out
}

func projectPayload(p guestdomain.Project, order int) resumeapi.Payload {
	out := resumeapi.Payload{"order": order}
	put(out, "title", p.Title)
	put(out, "technologies", p.Technologies)
	put(out, "start_date", p.StartDate)
	put(out, "end_date", p.EndDate)
	put(out, "description", p.Description)
	return out
}

func certificationPayload(c guestdomain.Certification, order int) resumeapi.Payload {
	out := resumeapi.Payload{"order": order}
	put(out, "name", c.Title)
	put(out, "issuer", c.Issuer)
	put(out, "issue_date", c.IssueDate)
	if !c.DoesNotExpire {
		put(out, "expiry_date", c.ExpirationDate)
	}
	put(out, "credential_id", c.CredentialID)
	put(out, "credential_url", c.URL)
	put(out, "description", c.Description)
	return out
}

func skillPayload(s guestdomain.Skill, order int) resumeapi.Payload {
	out := resumeapi.Payload{"order": order}
	put(out, "name", s.Name)
	put(out, "category", s.Category)
	put(out, "level", s.Level)
	return out
}

func languagePayload(l guestdomain.Language, order int) resumeapi.Payload {
	out := resumeapi.Payload{"order": order}
	put(out, "name", l.Name)
	put(out, "proficiency", l.Level)
	return out
}

func interestPayload(i guestdomain.Interest, order int) resumeapi.Payload {
	out := resumeapi.Payload{"order": order}
	put(out, "name", i.Name)
	return out
}

// put sets key only when the value is not blank.
func put(p resumeapi.Payload, key, value string) {
	if strings.TrimSpace(value) != "" {
		p[key] = value
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
