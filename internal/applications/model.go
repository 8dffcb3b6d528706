package applications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intake-backend/internal/cv"
)

// ApplicationRecord is the flattened row appended per successful
// submission. Section columns carry the structured CV serialized as
// JSON, matching the spreadsheet layout.
type ApplicationRecord struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	CVURL          string
	PersonalInfo   string
	Education      string
	Qualifications string
	Projects       string
	SubmittedAt    time.Time
}

// BuildRecord flattens a structured CV into an append-ready record.
func BuildRecord(name, email, phone, cvURL string, structured cv.StructuredCV, submittedAt time.Time) (ApplicationRecord, error) {
	personalInfo, err := json.Marshal(structured.PersonalInfo)
	if err != nil {
		return ApplicationRecord{}, fmt.Errorf("marshal personal info: %w", err)
	}
	education, err := json.Marshal(structured.Education)
	if err != nil {
		return ApplicationRecord{}, fmt.Errorf("marshal education: %w", err)
	}
	qualifications, err := json.Marshal(structured.Qualifications)
	if err != nil {
		return ApplicationRecord{}, fmt.Errorf("marshal qualifications: %w", err)
	}
	projects, err := json.Marshal(structured.Projects)
	if err != nil {
		return ApplicationRecord{}, fmt.Errorf("marshal projects: %w", err)
	}

	return ApplicationRecord{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		Phone:          phone,
		CVURL:          cvURL,
		PersonalInfo:   string(personalInfo),
		Education:      string(education),
		Qualifications: string(qualifications),
		Projects:       string(projects),
		SubmittedAt:    submittedAt,
	}, nil
}
