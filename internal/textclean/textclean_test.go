package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "crlf and tab runs",
			in:   "Senior\tEngineer\r\nAcme   Corp",
			want: "Senior Engineer\nAcme Corp",
		},
		{
			name: "collapses blank line runs",
			in:   "Role\n\n\n\n\nDetails",
			want: "Role\n\nDetails",
		},
		{
			name: "drops board boilerplate",
			in:   "Backend Engineer\nApply\nPosted 3 days ago\nShow more\nBuild APIs in Go.",
			want: "Backend Engineer\nBuild APIs in Go.",
		},
		{
			name: "keeps lines that merely contain keywords",
			in:   "Apply your Go skills daily.",
			want: "Apply your Go skills daily.",
		},
		{
			name: "empty input",
			in:   "   \n\t\n",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}
