package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/jobpulse/internal/model"
	"github.com/sells-group/jobpulse/internal/trace"
)

var (
	jobsStatus string
	jobsLimit  int
	jobsOffset int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recorded extraction outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		outcomes, err := st.ListOutcomes(ctx, trace.Filter{
			Status: model.OutcomeStatus(jobsStatus),
			Limit:  jobsLimit,
			Offset: jobsOffset,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status (success, exhausted, aborted)")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 50, "maximum outcomes to list")
	jobsCmd.Flags().IntVar(&jobsOffset, "offset", 0, "offset into the result set")
	rootCmd.AddCommand(jobsCmd)
}
