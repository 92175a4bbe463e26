package main

import (
	"os"

	"github.com/grovetools/moonsync/cli"
	"github.com/grovetools/moonsync/cmd"
	"github.com/grovetools/moonsync/tui"
)

func main() {
	tui.InitializeTUI()

	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(cli.ExitCode(err))
	}
}
