package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseManifest(t *testing.T) {
	path := writeManifest(t, `{"job_id":"job-1","path":"/tmp/a.txt"}

{"job_id":"job-2","path":"/tmp/b.txt"}
`)

	entries, err := parseManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "job-1", entries[0].JobID)
	assert.Equal(t, "/tmp/b.txt", entries[1].Path)
}

func TestParseManifestInvalidLine(t *testing.T) {
	path := writeManifest(t, `{"job_id":"job-1","path":"/tmp/a.txt"}
not json
`)

	_, err := parseManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseManifestMissingFields(t *testing.T) {
	path := writeManifest(t, `{"job_id":"job-1"}`)

	_, err := parseManifest(path)
	require.Error(t, err)
}

func TestParseManifestMissingFile(t *testing.T) {
	_, err := parseManifest(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestParsePreference(t *testing.T) {
	assert.Nil(t, parsePreference(""))
	assert.Nil(t, parsePreference("   "))
	assert.Equal(t, []string{"local", "claude"}, parsePreference("local,claude"))
	assert.Equal(t, []string{"local", "claude"}, parsePreference(" local , claude ,"))
}
