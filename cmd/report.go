package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/jobpulse/internal/report"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a markdown snapshot of recorded extractions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		md, err := report.Build(ctx, st, time.Now())
		if err != nil {
			return err
		}

		if reportOut == "" || reportOut == "-" {
			_, err = os.Stdout.WriteString(md)
			return err
		}
		if err := os.WriteFile(reportOut, []byte(md), 0o644); err != nil {
			return eris.Wrapf(err, "write report %s", reportOut)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "-", "output path, or - for stdout")
	rootCmd.AddCommand(reportCmd)
}
