package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	for _, v := range Versions() {
		p, err := Build(v, "Senior Gopher wanted at Acme.")
		require.NoError(t, err, "version %s", v)
		assert.Contains(t, p, "Senior Gopher wanted at Acme.")
		assert.NotContains(t, p, placeholder)
	}
}

func TestBuildUnknownVersion(t *testing.T) {
	_, err := Build("v99", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v99")
}

func TestVersions(t *testing.T) {
	vs := Versions()
	require.NotEmpty(t, vs)
	assert.True(t, sortedStrings(vs))
	assert.Contains(t, vs, "v2")
}

func sortedStrings(vs []string) bool {
	for i := 1; i < len(vs); i++ {
		if strings.Compare(vs[i-1], vs[i]) > 0 {
			return false
		}
	}
	return true
}
