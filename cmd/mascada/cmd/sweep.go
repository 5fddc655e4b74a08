package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digaomatias/mymascada-sub011/internal/recurring"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Record missed payments for overdue recurring patterns",
	Long: `Sweep walks the user's active recurring patterns whose next expected
payment date has passed, records a missed occurrence for each and moves
the expectation forward. Patterns that keep missing payments are demoted
and stop appearing in projections.`,
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

		lifecycle := recurring.NewLifecycle(db, recurring.DefaultDetectorConfig(), newLogger())
		count, err := lifecycle.ProcessMissedPayments(cmd.Context(), user)
		if err != nil {
			return err
		}

		fmt.Printf("Recorded %d missed payment(s)\n", count)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
