package cmd

import (
	"os"

	"github.com/m1stadev/ios-beta-api/internal/app/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the firmware catalog over HTTP",
	Long: `Serve the published firmware catalog over HTTP. With --scrape-interval,
the scraping pipeline also runs in-process on that interval, so the
served catalog stays fresh without an external scheduler.`,
	Args: cobra.MaximumNArgs(0),
	Run:  executeServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "", "0.0.0.0", "serve with this host name")
	serveCmd.Flags().StringP("port", "", "8080", "serve with this port")
	serveCmd.Flags().DurationP("scrape-interval", "", 0, "re-run the scraping pipeline on this interval (0 disables in-process scraping)")
}

func executeServe(cmd *cobra.Command, args []string) {
	host := cmd.Flag("host").Value.String()
	port := cmd.Flag("port").Value.String()
	interval, _ := cmd.Flags().GetDuration("scrape-interval")

	err := cli.Serve(cmd.Context(), host, port, interval)
	if err != nil {
		cli.Stderrf("serve failed")
		os.Exit(1)
	}
}
