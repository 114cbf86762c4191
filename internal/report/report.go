// Package report renders a markdown snapshot of recorded extraction outcomes.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jobpulse/internal/model"
	"github.com/sells-group/jobpulse/internal/trace"
)

const (
	topN       = 15
	recentDays = 7
)

// Build renders the snapshot for the data in st as of now.
func Build(ctx context.Context, st trace.Store, now time.Time) (string, error) {
	counts, err := st.CountByStatus(ctx)
	if err != nil {
		return "", eris.Wrap(err, "report: outcome counts")
	}
	recent, err := st.CountFinishedSince(ctx, now.AddDate(0, 0, -recentDays))
	if err != nil {
		return "", eris.Wrap(err, "report: recent count")
	}
	remote, err := st.CountRemote(ctx)
	if err != nil {
		return "", eris.Wrap(err, "report: remote count")
	}
	skills, err := st.TopSkills(ctx, topN)
	if err != nil {
		return "", eris.Wrap(err, "report: top skills")
	}
	locations, err := st.TopLocations(ctx, topN)
	if err != nil {
		return "", eris.Wrap(err, "report: top locations")
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Job Extraction Snapshot\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", now.UTC().Format(time.RFC3339))

	fmt.Fprintf(&sb, "## Outcomes\n\n")
	fmt.Fprintf(&sb, "- Total jobs recorded: %d\n", total)
	fmt.Fprintf(&sb, "- Succeeded: %d\n", counts[model.OutcomeSuccess])
	fmt.Fprintf(&sb, "- Exhausted: %d\n", counts[model.OutcomeExhausted])
	fmt.Fprintf(&sb, "- Aborted: %d\n", counts[model.OutcomeAborted])
	fmt.Fprintf(&sb, "- Recorded in the last %d days: %d\n", recentDays, recent)
	fmt.Fprintf(&sb, "- Remote-friendly postings: %d\n\n", remote)

	fmt.Fprintf(&sb, "## Top skills\n\n")
	if len(skills) == 0 {
		fmt.Fprintf(&sb, "No skills recorded yet.\n\n")
	} else {
		for _, sc := range skills {
			fmt.Fprintf(&sb, "- %s: %d\n", sc.Skill, sc.Count)
		}
		fmt.Fprintf(&sb, "\n")
	}

	fmt.Fprintf(&sb, "## Top locations\n\n")
	if len(locations) == 0 {
		fmt.Fprintf(&sb, "No locations recorded yet.\n")
	} else {
		for _, lc := range locations {
			fmt.Fprintf(&sb, "- %s: %d\n", lc.Location, lc.Count)
		}
	}

	return sb.String(), nil
}
