package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/digaomatias/mymascada-sub011/internal/recurring"
	"github.com/digaomatias/mymascada-sub011/internal/report"
)

var (
	upcomingDays   int
	upcomingFormat string
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Project upcoming bills from recurring patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser()
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		projector := recurring.NewProjector(db, newLogger())
		response, err := projector.GetUpcomingBills(cmd.Context(), user, upcomingDays)
		if err != nil {
			return err
		}

		generator, err := report.NewGenerator(&report.ReportConfig{
			Format: report.OutputFormat(upcomingFormat),
		})
		if err != nil {
			return err
		}
		return generator.WriteUpcomingBills(response, os.Stdout)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(upcomingCmd)
	upcomingCmd.Flags().IntVar(&upcomingDays, "days", recurring.DefaultDaysAhead, "projection horizon in days")
	upcomingCmd.Flags().StringVar(&upcomingFormat, "format", "console", "output format: console or json")
}
