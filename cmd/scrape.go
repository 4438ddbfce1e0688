package cmd

import (
	"os"

	"github.com/m1stadev/ios-beta-api/internal/app/cli"
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the wiki and publish the firmware catalog",
	Long: `Scrape beta firmware metadata off of the wiki, check signing status of
each firmware, and publish the catalog to the configured store.`,
	Args: cobra.MaximumNArgs(0),
	Run:  executeScrape,
}

func init() {
	RootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringP("output", "o", "", "write the catalog to this file instead of the configured store")
	scrapeCmd.Flags().String("store", "", "publish to this catalog store type (file or s3) instead of the configured one")
	scrapeCmd.Flags().BoolP("skip-signing", "", false, "do not invoke the signing checker, leave signing status unknown")
}

func executeScrape(cmd *cobra.Command, args []string) {
	output := cmd.Flag("output").Value.String()
	storeType := cmd.Flag("store").Value.String()
	skipSigning, _ := cmd.Flags().GetBool("skip-signing")

	err := cli.Scrape(cmd.Context(), output, storeType, skipSigning)
	if err != nil {
		os.Exit(1)
	}
}
