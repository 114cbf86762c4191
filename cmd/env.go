package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobpulse/internal/model"
	"github.com/sells-group/jobpulse/internal/orchestrator"
	"github.com/sells-group/jobpulse/internal/provider"
	"github.com/sells-group/jobpulse/internal/skills"
	"github.com/sells-group/jobpulse/internal/textclean"
	"github.com/sells-group/jobpulse/internal/trace"
	"github.com/sells-group/jobpulse/internal/validator"
	"github.com/sells-group/jobpulse/pkg/claude"
	"github.com/sells-group/jobpulse/pkg/openaicompat"
)

// appEnv bundles the wired store and orchestrator shared by the extraction
// commands.
type appEnv struct {
	store         trace.Store
	orch          *orchestrator.Orchestrator
	preference    []string
	schemaVersion string
}

// initEnv builds the store, provider registry and orchestrator from config.
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	rules := validator.DefaultRules()
	if cfg.Validation.RulesPath != "" {
		rules, err = validator.LoadRules(cfg.Validation.RulesPath)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	registry := buildRegistry()
	orch := orchestrator.New(registry, rules,
		time.Duration(cfg.Providers.AttemptBudgetSecs)*time.Second)

	return &appEnv{
		store:         st,
		orch:          orch,
		preference:    cfg.Providers.Preference,
		schemaVersion: cfg.Extraction.SchemaVersion,
	}, nil
}

func (e *appEnv) Close() {
	if err := e.store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// extractOne runs the full pipeline for a single posting: clean the text,
// run the provider cascade, record the trace and the skill tags. Trace
// write failures are logged but never change the returned outcome.
func (e *appEnv) extractOne(ctx context.Context, jobID, rawText string) (*model.ExtractionOutcome, error) {
	cleaned := textclean.Clean(rawText)

	outcome, err := e.orch.Run(ctx, model.ExtractionRequest{
		JobID:              jobID,
		RawText:            cleaned,
		ProviderPreference: e.preference,
		SchemaVersion:      e.schemaVersion,
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.SaveOutcome(ctx, outcome); err != nil {
		zap.L().Error("save outcome", zap.String("job_id", jobID), zap.Error(err))
	}
	if tags := skills.Extract(cleaned); len(tags) > 0 {
		if err := e.store.ReplaceSkills(ctx, jobID, tags); err != nil {
			zap.L().Error("save skills", zap.String("job_id", jobID), zap.Error(err))
		}
	}

	return outcome, nil
}

// initStore opens the trace store selected by config.
func initStore(ctx context.Context) (trace.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return trace.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "jobpulse.db"
		}
		return trace.NewSQLite(dsn)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildRegistry wires the configured providers. Claude is only registered
// when an API key is present; the local and openai endpoints are always
// available since an empty key is valid for self-hosted servers.
func buildRegistry() *provider.Registry {
	registry := provider.NewRegistry()

	local := openaicompat.NewClient(cfg.Providers.Local.Key,
		openaicompat.WithBaseURL(cfg.Providers.Local.BaseURL),
		openaicompat.WithModel(cfg.Providers.Local.Model),
	)
	registry.Register(provider.NewOpenAICompat(local, provider.OpenAICompatConfig{
		ID:          "local",
		Model:       cfg.Providers.Local.Model,
		MaxTokens:   cfg.Extraction.MaxTokens,
		Temperature: cfg.Extraction.Temperature,
		Timeout:     time.Duration(cfg.Providers.Local.TimeoutSecs) * time.Second,
		RPS:         cfg.Providers.Local.RPS,
	}))

	openai := openaicompat.NewClient(cfg.Providers.OpenAI.Key,
		openaicompat.WithBaseURL(cfg.Providers.OpenAI.BaseURL),
		openaicompat.WithModel(cfg.Providers.OpenAI.Model),
	)
	registry.Register(provider.NewOpenAICompat(openai, provider.OpenAICompatConfig{
		ID:          "openai",
		Model:       cfg.Providers.OpenAI.Model,
		MaxTokens:   cfg.Extraction.MaxTokens,
		Temperature: cfg.Extraction.Temperature,
		Timeout:     time.Duration(cfg.Providers.OpenAI.TimeoutSecs) * time.Second,
		RPS:         cfg.Providers.OpenAI.RPS,
	}))

	if cfg.Providers.Claude.Key != "" {
		registry.Register(provider.NewClaude(claude.NewClient(cfg.Providers.Claude.Key), provider.ClaudeConfig{
			ID:          "claude",
			Model:       cfg.Providers.Claude.Model,
			MaxTokens:   int64(cfg.Extraction.MaxTokens),
			Temperature: cfg.Extraction.Temperature,
			Timeout:     time.Duration(cfg.Providers.Claude.TimeoutSecs) * time.Second,
			RPS:         cfg.Providers.Claude.RPS,
		}))
	}

	return registry
}

// parsePreference splits a --providers flag value; empty means no override.
func parsePreference(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
