package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagEntries bool

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Day-by-day projected balances",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().BoolVarP(&flagEntries, "entries", "e", false, "Show the entries behind each day")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	client := newAPIClient(flagAPIAddr)

	var view forecastView
	if err := client.get("/forecast", windowQuery(), &view); err != nil {
		return err
	}

	fmt.Printf("\nForecast from %s, %d days (opening %s)\n\n",
		view.Start, view.Days, formatCents(view.OpeningCents))

	tw := newTable(os.Stdout)
	printHeader(tw, "DATE", "START", "IN", "OUT", "END", "HEALTH")
	for _, d := range view.Window {
		// Quiet days carry no new information in a long table.
		if len(d.Entries) == 0 && !flagEntries {
			continue
		}
		printRow(tw,
			d.Date,
			formatCents(d.StartCents),
			formatCents(d.IncomeCents),
			formatCents(d.ExpenseCents),
			formatCents(d.EndCents),
			d.Health.Label,
		)
		if flagEntries {
			for _, e := range d.Entries {
				printRow(tw, "", fmt.Sprintf("  %s [%s]", e.Description, e.Origin),
					"", formatCents(e.AmountCents), "", "")
			}
		}
	}
	tw.Flush()

	if len(view.Window) > 0 {
		last := view.Window[len(view.Window)-1]
		fmt.Printf("\nClosing balance on %s: %s (%s)\n",
			last.Date, formatCents(last.EndCents), last.Health.Label)
	}

	for _, issue := range view.Issues {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", issue.Code, issue.Message)
	}
	return nil
}
