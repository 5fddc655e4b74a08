package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/digaomatias/mymascada-sub011/internal/matcher"
	"github.com/digaomatias/mymascada-sub011/internal/reconciler"
	"github.com/digaomatias/mymascada-sub011/internal/report"
	"github.com/digaomatias/mymascada-sub011/internal/statement"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
)

var (
	reconcileSessionID string
	reconcileProfile   string
	reconcileFormat    string
	reconcileShowPairs bool
	reconcileComplete  bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <statement.json>",
	Short: "Match a bank statement against recorded transactions",
	Long: `Reconcile loads a JSON bank statement, matches its transactions against
the user's recorded transactions for the statement period and stores the
outcome on a reconciliation session. Re-running against the same session
replaces the previous outcome.

Without --session a new session is created from the statement metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd.Context(), args[0])
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&reconcileSessionID, "session", "", "existing session id to re-run (default: create a new session)")
	reconcileCmd.Flags().StringVar(&reconcileProfile, "profile", "default", "matching profile: default, strict or relaxed")
	reconcileCmd.Flags().StringVar(&reconcileFormat, "format", "console", "output format: console or json")
	reconcileCmd.Flags().BoolVar(&reconcileShowPairs, "show-pairs", false, "list every matched pair in console output")
	reconcileCmd.Flags().BoolVar(&reconcileComplete, "complete", false, "complete the session after matching")
}

func runReconcile(ctx context.Context, statementPath string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	cfg, err := matchProfile(reconcileProfile)
	if err != nil {
		return err
	}

	file, err := statement.Load(statementPath)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sessionID := reconcileSessionID
	if sessionID == "" {
		session := file.Session(user)
		if err := db.CreateSession(ctx, session); err != nil {
			return err
		}
		sessionID = session.ID
		fmt.Fprintf(os.Stderr, "Created session %s\n", sessionID)
	}

	service := reconciler.NewService(db, newLogger())
	result, err := service.MatchTransactions(ctx, sessionID, user, file.ExternalTransactions(), cfg)
	if err != nil {
		return err
	}

	generator, err := report.NewGenerator(&report.ReportConfig{
		Format:           report.OutputFormat(reconcileFormat),
		IncludeMatches:   reconcileShowPairs,
		IncludeUnmatched: true,
	})
	if err != nil {
		return err
	}
	if err := generator.WriteMatchingResult(result, os.Stdout); err != nil {
		return err
	}

	session, err := db.Session(ctx, sessionID, user)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Calculated balance: %s (statement: %s, difference: %s)\n",
		session.CalculatedBalance.StringFixed(2),
		session.StatementEndBalance.StringFixed(2),
		session.BalanceDifference().StringFixed(2))

	if reconcileComplete {
		if _, err := service.CompleteSession(ctx, sessionID, user); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Session %s completed\n", sessionID)
	}
	return nil
}

func matchProfile(name string) (*matcher.MatchConfig, error) {
	switch name {
	case "default":
		return matcher.DefaultMatchConfig(), nil
	case "strict":
		return matcher.StrictMatchConfig(), nil
	case "relaxed":
		return matcher.RelaxedMatchConfig(), nil
	default:
		return nil, engerrors.Validation(engerrors.CodeInvalidInput, "profile", name,
			"must be one of: default, strict, relaxed")
	}
}
