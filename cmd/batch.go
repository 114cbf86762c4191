package main

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/jobpulse/internal/model"
)

var (
	batchManifest    string
	batchConcurrency int
	batchProviders   string
)

// manifestEntry is one line of the batch manifest: a job ID and the path to
// its posting text.
type manifestEntry struct {
	JobID string `json:"job_id"`
	Path  string `json:"path"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract a manifest of job postings concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		entries, err := parseManifest(batchManifest)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return eris.New("manifest contains no entries")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if pref := parsePreference(batchProviders); pref != nil {
			env.preference = pref
		}

		var succeeded, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)
		for _, entry := range entries {
			g.Go(func() error {
				raw, err := os.ReadFile(entry.Path)
				if err != nil {
					failed.Add(1)
					zap.L().Error("read posting",
						zap.String("job_id", entry.JobID),
						zap.String("path", entry.Path),
						zap.Error(err),
					)
					return nil
				}

				outcome, err := env.extractOne(gctx, entry.JobID, string(raw))
				if err != nil {
					return err
				}
				if outcome.Status == model.OutcomeSuccess {
					succeeded.Add(1)
				} else {
					failed.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int("total", len(entries)),
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

// parseManifest reads a JSONL manifest of {"job_id": ..., "path": ...}
// entries, skipping blank lines.
func parseManifest(path string) ([]manifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open manifest %s", path)
	}
	defer f.Close()

	var entries []manifestEntry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var e manifestEntry
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return nil, eris.Wrapf(err, "manifest line %d", line)
		}
		if e.JobID == "" || e.Path == "" {
			return nil, eris.Errorf("manifest line %d: job_id and path are required", line)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read manifest")
	}
	return entries, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "", "path to JSONL manifest (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "concurrent extractions")
	batchCmd.Flags().StringVar(&batchProviders, "providers", "", "comma-separated provider order (default from config)")
	_ = batchCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(batchCmd)
}
