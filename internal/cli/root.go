package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagAPIAddr string
	flagStart   string
	flagDays    int
)

var rootCmd = &cobra.Command{
	Use:   "flowcast-cli",
	Short: "Cash-flow projection CLI",
	Long:  "Query a running flowcast server: projected balances, card invoices and monthly economy.",
	RunE:  runForecast,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultAddr := os.Getenv("FLOWCAST_API_URL")
	if defaultAddr == "" {
		defaultAddr = "http://localhost:8081"
	}

	rootCmd.PersistentFlags().StringVarP(&flagAPIAddr, "api", "a", defaultAddr, "Base URL of the flowcast server")
	rootCmd.PersistentFlags().StringVarP(&flagStart, "start", "s", "", "Projection start date (YYYY-MM-DD, default today)")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Projection window in days (default server-side)")
}
