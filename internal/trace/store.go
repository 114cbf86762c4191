// Package trace persists extraction outcomes. Records are keyed by job_id
// and writes are idempotent: re-recording the same outcome leaves the stored
// row byte-identical.
package trace

import (
	"context"
	"time"

	"github.com/sells-group/jobpulse/internal/model"
)

// Filter selects outcomes when listing.
type Filter struct {
	Status model.OutcomeStatus
	Limit  int
	Offset int
}

// SkillCount is one row of the skill frequency aggregate.
type SkillCount struct {
	Skill string
	Count int
}

// LocationCount is one row of the location frequency aggregate.
type LocationCount struct {
	Location string
	Count    int
}

// Store persists extraction traces and the aggregates the snapshot report
// reads.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	SaveOutcome(ctx context.Context, outcome *model.ExtractionOutcome) error
	GetOutcome(ctx context.Context, jobID string) (*model.ExtractionOutcome, error)
	ListOutcomes(ctx context.Context, filter Filter) ([]model.ExtractionOutcome, error)

	ReplaceSkills(ctx context.Context, jobID string, skills []string) error

	CountByStatus(ctx context.Context) (map[model.OutcomeStatus]int, error)
	CountFinishedSince(ctx context.Context, since time.Time) (int, error)
	CountRemote(ctx context.Context) (int, error)
	TopSkills(ctx context.Context, limit int) ([]SkillCount, error)
	TopLocations(ctx context.Context, limit int) ([]LocationCount, error)
}

// postingFacets pulls the columns the report aggregates out of successful
// structured data.
func postingFacets(data map[string]any) (location, remotePolicy string) {
	if data == nil {
		return "", ""
	}
	je, err := model.JobExtractFromMap(data)
	if err != nil {
		return "", ""
	}
	return je.Location, je.RemotePolicy
}
