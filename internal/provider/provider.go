// Package provider adapts heterogeneous LLM backends to one extraction call
// contract and classifies their failures into a small taxonomy the
// orchestrator can act on.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"

	"github.com/sells-group/jobpulse/internal/model"
)

// Extractor is the uniform contract over extraction backends. Extract returns
// the raw completion text; it never parses or validates it. Adapters own
// their network timeouts and surface failures as *Failure values.
type Extractor interface {
	ID() string
	Extract(ctx context.Context, rawText, schemaVersion string) (string, error)
}

// Failure wraps an adapter error with its orchestration-visible kind.
type Failure struct {
	Kind model.FailureKind
	Err  error
}

// NewFailure wraps err with a failure kind.
func NewFailure(kind model.FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify maps an error from an Extractor to a failure kind. Adapters attach
// precise kinds via *Failure; anything else falls back on context and network
// signals, with Unavailable as the default.
func Classify(err error) model.FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.FailureTimeout
	}
	return model.FailureUnavailable
}

// Registry holds the configured extractors by ID.
type Registry struct {
	providers map[string]Extractor
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Extractor)}
}

// Register adds an extractor, replacing any previous one with the same ID.
func (r *Registry) Register(p Extractor) {
	r.providers[p.ID()] = p
}

// Get returns the extractor for id, or nil if none is registered.
func (r *Registry) Get(id string) Extractor {
	return r.providers[id]
}

// IDs returns the registered provider IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
