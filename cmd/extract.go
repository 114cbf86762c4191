package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	extractJobID     string
	extractInput     string
	extractProviders string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured data from a single job posting",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := readInput(extractInput)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if pref := parsePreference(extractProviders); pref != nil {
			env.preference = pref
		}

		outcome, err := env.extractOne(ctx, extractJobID, raw)
		if err != nil {
			return err
		}

		zap.L().Info("extraction finished",
			zap.String("job_id", outcome.JobID),
			zap.String("status", string(outcome.Status)),
			zap.Int("attempts", len(outcome.Attempts)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	},
}

// readInput reads the posting text from a file, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", eris.Wrap(err, "read stdin")
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read input %s", path)
	}
	return string(b), nil
}

func init() {
	extractCmd.Flags().StringVar(&extractJobID, "job-id", "", "job posting identifier (required)")
	extractCmd.Flags().StringVar(&extractInput, "input", "-", "path to posting text, or - for stdin")
	extractCmd.Flags().StringVar(&extractProviders, "providers", "", "comma-separated provider order (default from config)")
	_ = extractCmd.MarkFlagRequired("job-id")
	rootCmd.AddCommand(extractCmd)
}
