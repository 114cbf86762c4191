package validator

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// RuleSet declares the checks applied to an extracted object. Zero-valued
// sections are skipped, so a partial rule file only tightens what it names.
type RuleSet struct {
	RequiredFields []string            `yaml:"required_fields"`
	StringFields   []string            `yaml:"string_fields"`
	ListFields     []string            `yaml:"list_fields"`
	IntFields      []string            `yaml:"int_fields"`
	EnumFields     map[string][]string `yaml:"enum_fields"`
	NonEmptyAnyOf  [][]string          `yaml:"non_empty_any_of"`
}

// DefaultRules returns the rule set for the current job-extract contract.
func DefaultRules() RuleSet {
	return RuleSet{
		RequiredFields: []string{"role_title", "company", "requirements", "responsibilities"},
		StringFields: []string{
			"role_title", "company", "location", "employment_type",
			"remote_policy", "degree_level", "visa_sponsorship",
		},
		ListFields: []string{
			"responsibilities", "requirements", "preferred_qualifications", "skills",
		},
		IntFields: []string{"years_experience_min"},
		EnumFields: map[string][]string{
			"employment_type":  {"Full-time", "Part-time", "Contract", "Internship", "Temporary"},
			"remote_policy":    {"Remote", "Hybrid", "On-site"},
			"visa_sponsorship": {"Yes", "No", "Unspecified"},
		},
		NonEmptyAnyOf: [][]string{{"requirements", "responsibilities"}},
	}
}

// LoadRules reads a RuleSet from a yaml file.
func LoadRules(path string) (RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, eris.Wrap(err, "validator: read rules file")
	}
	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return RuleSet{}, eris.Wrap(err, "validator: parse rules file")
	}
	return rs, nil
}
