package cmd

import (
	"fmt"

	"github.com/m1stadev/ios-beta-api/internal/config"
	"github.com/spf13/viper"

	"github.com/spf13/cobra"
)

// BetacatVersion is overridden at build time via ldflags
var BetacatVersion = "n/a"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show betacat version information",
	Long:  `Show betacat version information`,
	Args:  cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("betacat version %s\n", BetacatVersion)
		cf := viper.ConfigFileUsed()
		if cf == "" {
			cf = fmt.Sprintf("No config.json file found in '%s'. Using default settings", config.ConfigDir)
		}
		fmt.Printf("Configuration file used: %s\n", cf)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
