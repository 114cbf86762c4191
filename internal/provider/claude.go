package provider

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/jobpulse/internal/model"
	"github.com/sells-group/jobpulse/internal/prompt"
	"github.com/sells-group/jobpulse/pkg/claude"
)

const claudeSystemPrompt = "You extract structured data from job postings. " +
	"Respond with exactly one JSON object and nothing else."

// ClaudeConfig configures the Claude extractor.
type ClaudeConfig struct {
	ID          string
	Model       string
	MaxTokens   int64
	Temperature float64
	Timeout     time.Duration
	RPS         float64
}

// Claude extracts via the Anthropic Messages API.
type Claude struct {
	cfg     ClaudeConfig
	client  claude.Client
	limiter *rate.Limiter
}

// NewClaude creates an extractor over a Claude client.
func NewClaude(client claude.Client, cfg ClaudeConfig) *Claude {
	p := &Claude{cfg: cfg, client: client}
	if cfg.RPS > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return p
}

func (p *Claude) ID() string {
	return p.cfg.ID
}

func (p *Claude) Extract(ctx context.Context, rawText, schemaVersion string) (string, error) {
	userPrompt, err := prompt.Build(schemaVersion, rawText)
	if err != nil {
		return "", err
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", NewFailure(Classify(err), err)
		}
	}

	callCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	temperature := p.cfg.Temperature
	resp, err := p.client.CreateMessage(callCtx, claude.MessageRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		System:      claudeSystemPrompt,
		Messages:    []claude.Message{{Role: "user", Content: userPrompt}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", NewFailure(Classify(err), err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", NewFailure(model.FailureInvalidResponse,
			eris.Errorf("provider %s: message carried no text", p.cfg.ID))
	}
	return text, nil
}
