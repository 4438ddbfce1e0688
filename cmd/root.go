package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "betacat",
	Short: "A beta firmware catalog scraper and server",
	Long: `betacat scrapes beta iOS firmware metadata off of The iPhone Wiki,
cross-references signing status, and publishes the result as a JSON
catalog, queryable by device identifier over HTTP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
