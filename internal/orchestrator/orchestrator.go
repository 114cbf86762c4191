// Package orchestrator runs the provider fallback cascade for one extraction
// request: call a provider, harden its output, validate it, and move to the
// next provider on any failure until one passes or the preference list runs
// out.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobpulse/internal/hardener"
	"github.com/sells-group/jobpulse/internal/model"
	"github.com/sells-group/jobpulse/internal/provider"
	"github.com/sells-group/jobpulse/internal/validator"
)

// State identifies a position in the extraction state machine.
type State string

const (
	StateInit          State = "init"
	StateAttempting    State = "attempting"
	StateHardening     State = "hardening"
	StateValidating    State = "validating"
	StateNeedsFallback State = "needs_fallback"
	StateSuccess       State = "success"
	StateExhausted     State = "exhausted"
	StateAborted       State = "aborted"
)

const defaultAttemptBudget = 90 * time.Second

// ErrEmptyPreference is returned before any attempt when a request names no
// providers. This is a caller error, not an extraction outcome.
var ErrEmptyPreference = eris.New("orchestrator: provider preference list is empty")

// Orchestrator drives extraction requests through the fallback cascade.
// Each provider in the preference order is tried at most once.
type Orchestrator struct {
	registry      *provider.Registry
	rules         validator.RuleSet
	attemptBudget time.Duration
	now           func() time.Time // injectable for testing
}

// New creates an orchestrator. attemptBudget caps the wall clock of a single
// provider attempt; zero or negative selects the default.
func New(registry *provider.Registry, rules validator.RuleSet, attemptBudget time.Duration) *Orchestrator {
	if attemptBudget <= 0 {
		attemptBudget = defaultAttemptBudget
	}
	return &Orchestrator{
		registry:      registry,
		rules:         rules,
		attemptBudget: attemptBudget,
		now:           time.Now,
	}
}

// WithNow sets the clock source for testing.
func (o *Orchestrator) WithNow(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes the cascade for req. It returns an error only for caller
// mistakes (empty preference list, unknown provider); every run that starts
// terminates with a well-formed outcome, including cancellation.
func (o *Orchestrator) Run(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionOutcome, error) {
	if len(req.ProviderPreference) == 0 {
		return nil, ErrEmptyPreference
	}
	for _, id := range req.ProviderPreference {
		if o.registry.Get(id) == nil {
			return nil, eris.Errorf("orchestrator: unknown provider %q", id)
		}
	}

	log := zap.L().With(zap.String("job_id", req.JobID))
	outcome := &model.ExtractionOutcome{
		JobID:         req.JobID,
		SchemaVersion: req.SchemaVersion,
		Attempts:      []model.ProviderAttempt{},
		StartedAt:     o.now().UTC(),
	}

	var (
		state   = StateInit
		idx     int
		attempt *model.ProviderAttempt
	)

	for {
		switch state {
		case StateInit:
			state = StateAttempting

		case StateAttempting:
			if ctx.Err() != nil {
				state = StateAborted
				continue
			}
			p := o.registry.Get(req.ProviderPreference[idx])
			log.Info("orchestrator: attempting provider",
				zap.String("provider", p.ID()),
				zap.Int("position", idx),
			)
			outcome.Attempts = append(outcome.Attempts, o.attemptProvider(ctx, log, p, req))
			attempt = &outcome.Attempts[len(outcome.Attempts)-1]
			if attempt.FailureKind != "" {
				state = StateNeedsFallback
			} else {
				state = StateHardening
			}

		case StateHardening:
			if ctx.Err() != nil {
				state = StateAborted
				continue
			}
			hardened, err := hardener.Harden(attempt.RawOutput)
			attempt.Hardened = hardened
			if err != nil {
				attempt.FailureKind = model.FailureMalformedOutput
				log.Warn("orchestrator: output unrecoverable",
					zap.String("provider", attempt.ProviderID),
					zap.Strings("repair_steps", hardened.RepairStepsApplied),
				)
				state = StateNeedsFallback
				continue
			}
			state = StateValidating

		case StateValidating:
			if ctx.Err() != nil {
				state = StateAborted
				continue
			}
			res := validator.Validate(attempt.Hardened.Parsed, o.rules)
			attempt.Validation = res
			if res.Status == model.ValidationPass {
				state = StateSuccess
				continue
			}
			attempt.FailureKind = model.FailureSchemaViolation
			log.Warn("orchestrator: validation failed",
				zap.String("provider", attempt.ProviderID),
				zap.Strings("violated_rules", res.ViolatedRules),
			)
			state = StateNeedsFallback

		case StateNeedsFallback:
			if ctx.Err() != nil {
				state = StateAborted
				continue
			}
			idx++
			if idx < len(req.ProviderPreference) {
				state = StateAttempting
			} else {
				state = StateExhausted
			}

		case StateSuccess:
			outcome.Status = model.OutcomeSuccess
			outcome.StructuredData = attempt.Validation.Normalized
			outcome.FinishedAt = o.now().UTC()
			log.Info("orchestrator: extraction succeeded",
				zap.String("provider", attempt.ProviderID),
				zap.Int("attempts", len(outcome.Attempts)),
			)
			return outcome, nil

		case StateExhausted:
			outcome.Status = model.OutcomeExhausted
			outcome.FinishedAt = o.now().UTC()
			log.Warn("orchestrator: all providers exhausted",
				zap.Int("attempts", len(outcome.Attempts)),
			)
			return outcome, nil

		case StateAborted:
			outcome.Status = model.OutcomeAborted
			outcome.FinishedAt = o.now().UTC()
			log.Warn("orchestrator: extraction aborted",
				zap.Int("attempts", len(outcome.Attempts)),
			)
			return outcome, nil
		}
	}
}

// attemptProvider runs one provider call under the per-attempt budget. The
// returned attempt has either RawOutput or FailureKind set.
func (o *Orchestrator) attemptProvider(ctx context.Context, log *zap.Logger, p provider.Extractor, req model.ExtractionRequest) model.ProviderAttempt {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptBudget)
	defer cancel()

	att := model.ProviderAttempt{
		ID:         uuid.New().String(),
		ProviderID: p.ID(),
		StartedAt:  o.now().UTC(),
	}

	raw, err := p.Extract(attemptCtx, req.RawText, req.SchemaVersion)
	att.FinishedAt = o.now().UTC()
	if err != nil {
		kind := provider.Classify(err)
		// Budget exhaustion counts as Timeout no matter how the adapter
		// reported the interrupted call.
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			kind = model.FailureTimeout
		}
		att.FailureKind = kind
		log.Warn("orchestrator: provider attempt failed",
			zap.String("provider", p.ID()),
			zap.String("failure_kind", string(kind)),
			zap.Error(err),
		)
		return att
	}

	att.RawOutput = raw
	return att
}
