package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobpulse/internal/model"
)

func validJob() map[string]any {
	return map[string]any{
		"role_title":               "Backend Engineer",
		"company":                  "Acme",
		"location":                 "Austin, TX",
		"employment_type":          "Full-time",
		"remote_policy":            "Hybrid",
		"responsibilities":         []any{"Build services"},
		"requirements":             []any{"Go", "SQL"},
		"preferred_qualifications": []any{},
		"skills":                   []any{"go", "postgresql"},
		"years_experience_min":     float64(3),
		"degree_level":             "Bachelor",
		"visa_sponsorship":         "No",
	}
}

func TestValidatePass(t *testing.T) {
	res := Validate(validJob(), DefaultRules())
	require.Equal(t, model.ValidationPass, res.Status)
	assert.Empty(t, res.ViolatedRules)
	require.NotNil(t, res.Normalized)
}

func TestValidateMissingField(t *testing.T) {
	job := validJob()
	delete(job, "company")

	res := Validate(job, DefaultRules())
	require.Equal(t, model.ValidationFail, res.Status)
	assert.Equal(t, []string{"missing_company"}, res.ViolatedRules)
	assert.Nil(t, res.Normalized)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	job := validJob()
	delete(job, "company")
	delete(job, "role_title")
	job["employment_type"] = "freelance gig"

	res := Validate(job, DefaultRules())
	require.Equal(t, model.ValidationFail, res.Status)
	assert.Equal(t, []string{
		"invalid_enum_employment_type",
		"missing_company",
		"missing_role_title",
	}, res.ViolatedRules)
}

func TestValidateStructuralShortCircuitsSemantic(t *testing.T) {
	job := validJob()
	delete(job, "company")
	job["requirements"] = []any{}
	job["responsibilities"] = []any{}

	res := Validate(job, DefaultRules())
	require.Equal(t, model.ValidationFail, res.Status)
	// Only the structural violation surfaces; empty-list and coverage rules
	// must not run against a structurally broken object.
	assert.Equal(t, []string{"missing_company"}, res.ViolatedRules)
}

func TestValidateWrongTypes(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		rule  string
	}{
		{"list as string", "requirements", "Go and SQL", "wrong_type_requirements"},
		{"string as number", "company", float64(42), "wrong_type_company"},
		{"non string element", "skills", []any{"go", float64(1)}, "wrong_type_skills"},
		{"fractional years", "years_experience_min", 3.5, "wrong_type_years_experience_min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := validJob()
			job[tt.field] = tt.value
			res := Validate(job, DefaultRules())
			require.Equal(t, model.ValidationFail, res.Status)
			assert.Contains(t, res.ViolatedRules, tt.rule)
		})
	}
}

func TestValidateSemanticRules(t *testing.T) {
	t.Run("empty required lists and coverage", func(t *testing.T) {
		job := validJob()
		job["requirements"] = []any{}
		job["responsibilities"] = []any{}

		res := Validate(job, DefaultRules())
		require.Equal(t, model.ValidationFail, res.Status)
		assert.Equal(t, []string{
			"empty_requirements",
			"empty_responsibilities",
			"low_coverage_requirements_responsibilities",
		}, res.ViolatedRules)
	})

	t.Run("placeholder text", func(t *testing.T) {
		job := validJob()
		job["company"] = "{{COMPANY_NAME}}"

		res := Validate(job, DefaultRules())
		require.Equal(t, model.ValidationFail, res.Status)
		assert.Equal(t, []string{"placeholder_text_company"}, res.ViolatedRules)
	})

	t.Run("placeholder in list element", func(t *testing.T) {
		job := validJob()
		job["requirements"] = []any{"Go", "<insert requirement>"}

		res := Validate(job, DefaultRules())
		require.Equal(t, model.ValidationFail, res.Status)
		assert.Equal(t, []string{"placeholder_text_requirements"}, res.ViolatedRules)
	})
}

func TestValidateDeterministic(t *testing.T) {
	job := validJob()
	delete(job, "company")
	job["employment_type"] = "gig"
	job["remote_policy"] = "sometimes"

	first := Validate(job, DefaultRules())
	for i := 0; i < 10; i++ {
		again := Validate(job, DefaultRules())
		assert.Equal(t, first.ViolatedRules, again.ViolatedRules)
	}
}

func TestNormalization(t *testing.T) {
	job := validJob()
	job["company"] = "  Acme  "
	job["employment_type"] = "full-time"
	job["remote_policy"] = "HYBRID"
	job["requirements"] = []any{" Go ", "SQL"}

	res := Validate(job, DefaultRules())
	require.Equal(t, model.ValidationPass, res.Status)

	assert.Equal(t, "Acme", res.Normalized["company"])
	assert.Equal(t, "Full-time", res.Normalized["employment_type"])
	assert.Equal(t, "Hybrid", res.Normalized["remote_policy"])
	assert.Equal(t, []any{"Go", "SQL"}, res.Normalized["requirements"])

	// Same fields in, same fields out.
	assert.Len(t, res.Normalized, len(job))
	for k := range job {
		assert.Contains(t, res.Normalized, k)
	}
	// Input is not mutated.
	assert.Equal(t, "  Acme  ", job["company"])
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
required_fields: [title, company]
string_fields: [title, company]
non_empty_any_of:
  - [title]
`), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "company"}, rules.RequiredFields)

	res := Validate(map[string]any{"title": "X"}, rules)
	require.Equal(t, model.ValidationFail, res.Status)
	assert.Equal(t, []string{"missing_company"}, res.ViolatedRules)
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
