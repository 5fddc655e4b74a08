package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digaomatias/mymascada-sub011/internal/recurring"
)

var detectLookback int

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect recurring payment patterns from transaction history",
	Long: `Detect scans the user's expense history, groups transactions by
merchant and persists recurring payment patterns (subscriptions, bills)
whose cadence and amounts are regular enough. Re-running refreshes
existing patterns in place.`,
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

		cfg := recurring.DefaultDetectorConfig()
		if detectLookback > 0 {
			cfg.LookbackMonths = detectLookback
		}

		detector := recurring.NewDetector(db, cfg, newLogger())
		count, err := detector.DetectAndPersistPatterns(cmd.Context(), user)
		if err != nil {
			return err
		}

		fmt.Printf("Detected %d recurring pattern(s)\n", count)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().IntVar(&detectLookback, "lookback", 0, "history window in months (default 6)")
}
