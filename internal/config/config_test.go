package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "jobpulse.db", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"local", "claude"}, cfg.Providers.Preference)
	assert.Equal(t, 90, cfg.Providers.AttemptBudgetSecs)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Providers.Local.BaseURL)
	assert.Equal(t, "qwen2.5:0.5b-instruct", cfg.Providers.Local.Model)
	assert.Equal(t, 60, cfg.Providers.Local.TimeoutSecs)
	assert.Equal(t, "https://api.openai.com", cfg.Providers.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers.OpenAI.Model)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Providers.Claude.Model)
	assert.Equal(t, "v2", cfg.Extraction.SchemaVersion)
	assert.Equal(t, 1200, cfg.Extraction.MaxTokens)
	assert.InDelta(t, 0.0, cfg.Extraction.Temperature, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("JOBPULSE_STORE_DRIVER", "postgres")
	t.Setenv("JOBPULSE_STORE_DATABASE_URL", "postgres://localhost/jobpulse")
	t.Setenv("JOBPULSE_PROVIDERS_CLAUDE_KEY", "sk-test")
	t.Setenv("JOBPULSE_PROVIDERS_OPENAI_KEY", "sk-openai")
	t.Setenv("JOBPULSE_PROVIDERS_LOCAL_RPS", "1.5")
	t.Setenv("JOBPULSE_EXTRACTION_SCHEMA_VERSION", "v1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/jobpulse", cfg.Store.DatabaseURL)
	assert.Equal(t, "sk-test", cfg.Providers.Claude.Key)
	assert.Equal(t, "sk-openai", cfg.Providers.OpenAI.Key)
	assert.InDelta(t, 1.5, cfg.Providers.Local.RPS, 0.001)
	assert.Equal(t, "v1", cfg.Extraction.SchemaVersion)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
providers:
  preference:
    - claude
  local:
    model: llama3.2:3b
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, []string{"claude"}, cfg.Providers.Preference)
	assert.Equal(t, "llama3.2:3b", cfg.Providers.Local.Model)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for untouched keys.
	assert.Equal(t, "v2", cfg.Extraction.SchemaVersion)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}
