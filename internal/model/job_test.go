package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobExtractFromMap(t *testing.T) {
	je, err := JobExtractFromMap(map[string]any{
		"role_title":           "Backend Engineer",
		"company":              "Acme",
		"location":             "Austin, TX",
		"remote_policy":        "Hybrid",
		"requirements":         []any{"Go", "SQL"},
		"years_experience_min": float64(3),
	})
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", je.RoleTitle)
	assert.Equal(t, "Austin, TX", je.Location)
	assert.Equal(t, "Hybrid", je.RemotePolicy)
	assert.Equal(t, []string{"Go", "SQL"}, je.Requirements)
	require.NotNil(t, je.YearsExperienceMin)
	assert.Equal(t, 3, *je.YearsExperienceMin)
	assert.Empty(t, je.DegreeLevel)
}

func TestJobExtractFromMapUnknownFieldsIgnored(t *testing.T) {
	je, err := JobExtractFromMap(map[string]any{
		"role_title": "Engineer",
		"confidence": 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "Engineer", je.RoleTitle)
}

func TestJobExtractFromMapWrongType(t *testing.T) {
	_, err := JobExtractFromMap(map[string]any{
		"role_title": []any{"not", "a", "string"},
	})
	assert.Error(t, err)
}
