// Package cmd implements the mascada CLI: reconciliation runs, recurring
// pattern detection, missed-payment sweeps and upcoming-bill projection over
// a local SQLite database.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/digaomatias/mymascada-sub011/internal/store"
	"github.com/digaomatias/mymascada-sub011/pkg/logger"
)

var (
	cfgFile string
	dbPath  string
	userID  string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mascada",
	Short: "Transaction matching and recurring payment engine",
	Long: `Mascada reconciles bank statements against your recorded transactions
and tracks recurring payments: detection, missed-payment sweeps and
upcoming-bill projection.

Examples:
  mascada reconcile statement.json --user u1 --db ledger.db
  mascada detect --user u1 --db ledger.db
  mascada sweep --user u1 --db ledger.db
  mascada upcoming --user u1 --days 14 --db ledger.db`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "mascada.db", "path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user id to operate on (required)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
	}

	viper.SetEnvPrefix("MASCADA")
	viper.AutomaticEnv()
}

// requireUser validates that a user id was supplied by flag, env or config.
func requireUser() (string, error) {
	user := viper.GetString("user")
	if user == "" {
		return "", fmt.Errorf("a user id is required: pass --user or set MASCADA_USER")
	}
	return user, nil
}

// openStore opens the SQLite store at the configured path.
func openStore() (*store.SQLite, error) {
	return store.OpenSQLite(viper.GetString("db"))
}

// newLogger builds the CLI logger honoring the verbose flag.
func newLogger() logger.Logger {
	cfg := logger.DefaultConfig()
	if viper.GetBool("verbose") {
		cfg.Level = logger.DebugLevel
	}
	log, err := logger.New(cfg)
	if err != nil {
		return logger.Discard()
	}
	return log
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
