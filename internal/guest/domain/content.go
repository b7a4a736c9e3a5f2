package domain

import "strings"

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Qualifies reports whether the entry carries its required fields. Entries
// that do not qualify are skipped by migration rather than rejected.
func (e Experience) Qualifies() bool    { return !blank(e.Company) && !blank(e.Position) }
func (e Education) Qualifies() bool     { return !blank(e.Institution) && !blank(e.Degree) }
func (p Project) Qualifies() bool       { return !blank(p.Title) }
func (c Certification) Qualifies() bool { return !blank(c.Title) }
func (s Skill) Qualifies() bool         { return !blank(s.Name) }
func (l Language) Qualifies() bool      { return !blank(l.Name) }
func (i Interest) Qualifies() bool      { return !blank(i.Name) }

// HasContent gates the AI features and migration: the guest must have a name
// or email and at least one qualifying experience, education or skill.
func HasContent(d Document) bool {
	if blank(d.Personal.FullName) && blank(d.Personal.Email) {
		return false
	}
	return anyQualifies(d.Experiences) || anyQualifies(d.Educations) || anyQualifies(d.Skills)
}

// IsEmpty reports whether nothing at all has been entered.
func IsEmpty(d Document) bool {
	return d.Personal == (Personal{}) &&
		len(d.Experiences) == 0 && len(d.Educations) == 0 && len(d.Projects) == 0 &&
		len(d.Certifications) == 0 && len(d.Skills) == 0 && len(d.Languages) == 0 &&
		len(d.Interests) == 0 && d.OptimizedSummary == ""
}

type qualifier interface{ Qualifies() bool }

func anyQualifies[T qualifier](items []T) bool {
	for _, it := range items {
		if it.Qualifies() {
			return true
		}
	}
	return false
}
