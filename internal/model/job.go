package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// JobExtract is the canonical structured representation of a job posting.
// Field names match the JSON contract the extraction prompts ask for.
type JobExtract struct {
	RoleTitle               string   `json:"role_title"`
	Company                 string   `json:"company"`
	Location                string   `json:"location"`
	EmploymentType          string   `json:"employment_type"`
	RemotePolicy            string   `json:"remote_policy"`
	Responsibilities        []string `json:"responsibilities"`
	Requirements            []string `json:"requirements"`
	PreferredQualifications []string `json:"preferred_qualifications"`
	Skills                  []string `json:"skills"`
	YearsExperienceMin      *int     `json:"years_experience_min"`
	DegreeLevel             string   `json:"degree_level"`
	VisaSponsorship         string   `json:"visa_sponsorship"`
}

// JobExtractFromMap converts a generic decoded object into a JobExtract.
func JobExtractFromMap(data map[string]any) (*JobExtract, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal job data")
	}
	var je JobExtract
	if err := json.Unmarshal(raw, &je); err != nil {
		return nil, eris.Wrap(err, "model: unmarshal job extract")
	}
	return &je, nil
}
