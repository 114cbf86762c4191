package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Providers  ProvidersConfig  `yaml:"providers" mapstructure:"providers"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the trace database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProvidersConfig configures the extraction providers and fallback order.
type ProvidersConfig struct {
	Preference        []string             `yaml:"preference" mapstructure:"preference"`
	AttemptBudgetSecs int                  `yaml:"attempt_budget_secs" mapstructure:"attempt_budget_secs"`
	Local             OpenAICompatSettings `yaml:"local" mapstructure:"local"`
	OpenAI            OpenAICompatSettings `yaml:"openai" mapstructure:"openai"`
	Claude            ClaudeSettings       `yaml:"claude" mapstructure:"claude"`
}

// OpenAICompatSettings holds settings for an OpenAI-compatible endpoint.
type OpenAICompatSettings struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// ClaudeSettings holds Anthropic API settings.
type ClaudeSettings struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// ExtractionConfig configures prompt and sampling behavior.
type ExtractionConfig struct {
	SchemaVersion string  `yaml:"schema_version" mapstructure:"schema_version"`
	MaxTokens     int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float64 `yaml:"temperature" mapstructure:"temperature"`
}

// ValidationConfig configures the schema validation rules.
type ValidationConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("JOBPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one, even if empty: AutomaticEnv only
	// surfaces env vars through Unmarshal for keys viper already knows.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "jobpulse.db")
	v.SetDefault("providers.preference", []string{"local", "claude"})
	v.SetDefault("providers.attempt_budget_secs", 90)
	v.SetDefault("providers.local.base_url", "http://localhost:11434/v1")
	v.SetDefault("providers.local.key", "")
	v.SetDefault("providers.local.model", "qwen2.5:0.5b-instruct")
	v.SetDefault("providers.local.timeout_secs", 60)
	v.SetDefault("providers.local.rps", 0.0)
	v.SetDefault("providers.openai.base_url", "https://api.openai.com")
	v.SetDefault("providers.openai.key", "")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.timeout_secs", 60)
	v.SetDefault("providers.openai.rps", 0.0)
	v.SetDefault("providers.claude.key", "")
	v.SetDefault("providers.claude.model", "claude-haiku-4-5-20251001")
	v.SetDefault("providers.claude.timeout_secs", 60)
	v.SetDefault("providers.claude.rps", 0.0)
	v.SetDefault("extraction.schema_version", "v2")
	v.SetDefault("extraction.max_tokens", 1200)
	v.SetDefault("extraction.temperature", 0.0)
	v.SetDefault("validation.rules_path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
