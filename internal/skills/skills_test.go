package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "keyword aliases map to canonical tags",
			text: "Experience with Postgres, k8s and PyTorch required.",
			want: []string{"kubernetes", "pytorch", "sql"},
		},
		{
			name: "word boundaries respected",
			text: "Category management for golf resorts.",
			want: nil,
		},
		{
			name: "slash separated list",
			text: "Go/Python engineers welcome",
			want: []string{"go", "python"},
		},
		{
			name: "multiple aliases count once",
			text: "MySQL and PostgreSQL and SQLite",
			want: []string{"sql"},
		},
		{
			name: "unicode dash normalized",
			text: "scikit–learn experience",
			want: []string{"sklearn"},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}
