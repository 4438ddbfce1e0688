package cmd

import (
	"os"

	"github.com/m1stadev/ios-beta-api/internal/app/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List device identifiers in the published catalog",
	Args:  cobra.MaximumNArgs(0),
	Run:   executeList,
}

func init() {
	RootCmd.AddCommand(listCmd)
}

func executeList(cmd *cobra.Command, args []string) {
	err := cli.List(cmd.Context())
	if err != nil {
		os.Exit(1)
	}
}
