package cv

// PersonalInfo holds AI-derived contact details. Every field is
// best-effort and may be blank.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	LinkedIn string `json:"linkedin"`
}

// StructuredCV is the fixed JSON shape produced from free-form résumé
// text. Sections may be empty but are always present and non-nil.
type StructuredCV struct {
	PersonalInfo   PersonalInfo `json:"personal_info"`
	Education      []any        `json:"education"`
	Qualifications []any        `json:"qualifications"`
	Projects       []any        `json:"projects"`
	CVPublicLink   string       `json:"cv_public_link,omitempty"`
}

// Fallback returns the documented default structure used when the model
// output cannot be parsed: blank personal info and empty sections.
func Fallback() StructuredCV {
	return StructuredCV{
		Education:      []any{},
		Qualifications: []any{},
		Projects:       []any{},
	}
}

func normalize(structured StructuredCV) StructuredCV {
	if structured.Education == nil {
		structured.Education = []any{}
	}
	if structured.Qualifications == nil {
		structured.Qualifications = []any{}
	}
	if structured.Projects == nil {
		structured.Projects = []any{}
	}
	return structured
}
