package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagCard string
	flagAsOf string
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Credit card invoices grouped by due month",
	RunE:  runInvoices,
}

func init() {
	invoicesCmd.Flags().StringVarP(&flagCard, "card", "c", "", "Filter to one card id")
	invoicesCmd.Flags().StringVar(&flagAsOf, "as-of", "", "Status reference date (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(invoicesCmd)
}

func runInvoices(_ *cobra.Command, _ []string) error {
	client := newAPIClient(flagAPIAddr)

	q := url.Values{}
	if flagCard != "" {
		q.Set("card", flagCard)
	}
	if flagAsOf != "" {
		q.Set("as_of", flagAsOf)
	}

	var invoices []invoiceView
	if err := client.get("/invoices", q, &invoices); err != nil {
		return err
	}

	if len(invoices) == 0 {
		fmt.Println("No card transactions found.")
		return nil
	}

	fmt.Println()
	tw := newTable(os.Stdout)
	printHeader(tw, "CARD", "MONTH", "DUE", "TOTAL", "STATUS", "ENTRIES")
	for _, inv := range invoices {
		printRow(tw,
			inv.CardID,
			inv.YearMonth,
			inv.DueDate,
			formatCents(inv.TotalCents),
			inv.Status,
			fmt.Sprintf("%d", len(inv.Entries)),
		)
	}
	tw.Flush()
	return nil
}
