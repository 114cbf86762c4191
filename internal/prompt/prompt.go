// Package prompt builds versioned extraction prompts. The schema version of a
// request selects the template, so older recorded traces stay reproducible.
package prompt

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

const placeholder = "{{JOB_DESCRIPTION}}"

const promptV1 = `Extract structured data from the job posting below.
Respond with a single JSON object and nothing else. Use these keys:
role_title, company, location, employment_type, requirements, skills.
Use null when the posting does not state a value.

Job posting:
{{JOB_DESCRIPTION}}`

const promptV2 = `You extract structured data from job postings.

Respond with exactly one JSON object and nothing else: no markdown fences,
no commentary before or after. Use these keys:

- role_title: string
- company: string
- location: string
- employment_type: one of "Full-time", "Part-time", "Contract", "Internship", "Temporary"
- remote_policy: one of "Remote", "Hybrid", "On-site"
- responsibilities: array of strings
- requirements: array of strings
- preferred_qualifications: array of strings
- skills: array of strings
- years_experience_min: integer or null
- degree_level: string
- visa_sponsorship: one of "Yes", "No", "Unspecified"

Copy values from the posting; never invent content. Use null for unstated
scalars and [] for unstated lists.

Job posting:
{{JOB_DESCRIPTION}}`

var templates = map[string]string{
	"v1": promptV1,
	"v2": promptV2,
}

// Build renders the extraction prompt for a schema version.
func Build(schemaVersion, jobDescription string) (string, error) {
	tmpl, ok := templates[schemaVersion]
	if !ok {
		return "", eris.Errorf("prompt: unknown schema version %q", schemaVersion)
	}
	return strings.ReplaceAll(tmpl, placeholder, jobDescription), nil
}

// Versions lists the known schema versions in sorted order.
func Versions() []string {
	vs := make([]string, 0, len(templates))
	for v := range templates {
		vs = append(vs, v)
	}
	sort.Strings(vs)
	return vs
}
