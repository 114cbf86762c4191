package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/jobpulse/internal/model"
	"github.com/sells-group/jobpulse/internal/prompt"
	"github.com/sells-group/jobpulse/pkg/openaicompat"
)

// OpenAICompatConfig configures an OpenAI-compatible extractor.
type OpenAICompatConfig struct {
	ID          string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	RPS         float64
}

// OpenAICompat extracts via any OpenAI-compatible chat completion endpoint,
// which covers both hosted APIs and a local Ollama server.
type OpenAICompat struct {
	cfg     OpenAICompatConfig
	client  openaicompat.Client
	limiter *rate.Limiter
}

// NewOpenAICompat creates an extractor over an OpenAI-compatible client.
func NewOpenAICompat(client openaicompat.Client, cfg OpenAICompatConfig) *OpenAICompat {
	p := &OpenAICompat{cfg: cfg, client: client}
	if cfg.RPS > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return p
}

func (p *OpenAICompat) ID() string {
	return p.cfg.ID
}

func (p *OpenAICompat) Extract(ctx context.Context, rawText, schemaVersion string) (string, error) {
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
	maxTokens := p.cfg.MaxTokens
	resp, err := p.client.ChatCompletion(callCtx, openaicompat.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    []openaicompat.Message{{Role: "user", Content: userPrompt}},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", classifyHTTP(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", NewFailure(model.FailureInvalidResponse,
			eris.Errorf("provider %s: completion carried no content", p.cfg.ID))
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyHTTP maps transport errors to failure kinds. Gateway and request
// timeouts count as Timeout; every other non-2xx status (auth, rate limit,
// server errors) means the provider is unavailable for this attempt.
func classifyHTTP(err error) *Failure {
	var apiErr *openaicompat.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return NewFailure(model.FailureTimeout, err)
		default:
			return NewFailure(model.FailureUnavailable, err)
		}
	}
	return NewFailure(Classify(err), err)
}
