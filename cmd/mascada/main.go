package main

import (
	"os"

	"github.com/digaomatias/mymascada-sub011/cmd/mascada/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.NewErrorHandler().HandleError(err))
	}
}
