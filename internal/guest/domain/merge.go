package domain

// Merge applies p on top of d. Only top-level keys present in p change.
func (d Document) Merge(p Partial) Document {
	out := d
	if p.Personal != nil {
		out.Personal = *p.Personal
	}
	if p.Experiences != nil {
		out.Experiences = p.Experiences
	}
	if p.Educations != nil {
		out.Educations = p.Educations
	}
	if p.Projects != nil {
		out.Projects = p.Projects
	}
	if p.Certifications != nil {
		out.Certifications = p.Certifications
	}
	if p.Skills != nil {
		out.Skills = p.Skills
	}
	if p.Languages != nil {
		out.Languages = p.Languages
	}
	if p.Interests != nil {
		out.Interests = p.Interests
	}
	if p.OptimizedSummary != nil {
		out.OptimizedSummary = *p.OptimizedSummary
	}
	return out
}

// Apply merges the patch into p field by field.
func (p Personal) Apply(patch PersonalPatch) Personal {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.FullName, patch.FullName)
	set(&p.Email, patch.Email)
	set(&p.Phone, patch.Phone)
	set(&p.Location, patch.Location)
	set(&p.LinkedIn, patch.LinkedIn)
	set(&p.GitHub, patch.GitHub)
	set(&p.Portfolio, patch.Portfolio)
	set(&p.ProfessionalTagline, patch.ProfessionalTagline)
	set(&p.Summary, patch.Summary)
	return p
}

// Normalize enforces the per-list id uniqueness and certification expiry
// invariants. Slices are copied so callers' inputs are not mutated.
func (d Document) Normalize() Document {
	d.Experiences = assignIDs(d.Experiences, func(e *Experience) *string { return &e.ID })
	d.Educations = assignIDs(d.Educations, func(e *Education) *string { return &e.ID })
	d.Projects = assignIDs(d.Projects, func(p *Project) *string { return &p.ID })
	d.Certifications = assignIDs(d.Certifications, func(c *Certification) *string { return &c.ID })
	d.Skills = assignIDs(d.Skills, func(s *Skill) *string { return &s.ID })
	d.Languages = assignIDs(d.Languages, func(l *Language) *string { return &l.ID })
	d.Interests = assignIDs(d.Interests, func(i *Interest) *string { return &i.ID })

	for i := range d.Certifications {
		if d.Certifications[i].DoesNotExpire {
			d.Certifications[i].ExpirationDate = ""
		}
	}
	return d
}

func assignIDs[T any](items []T, id func(*T) *string) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)

	seen := make(map[string]struct{}, len(out))
	for i := range out {
		p := id(&out[i])
		if _, dup := seen[*p]; *p == "" || dup {
			*p = NewClientID()
			for {
				if _, dup := seen[*p]; !dup {
					break
				}
				*p = NewClientID()
			}
		}
		seen[*p] = struct{}{}
	}
	return out
}
