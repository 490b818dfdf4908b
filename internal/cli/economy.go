package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var economyCmd = &cobra.Command{
	Use:   "economy",
	Short: "Monthly income, expenses and savings rate",
	RunE:  runEconomy,
}

func init() {
	rootCmd.AddCommand(economyCmd)
}

func runEconomy(_ *cobra.Command, _ []string) error {
	client := newAPIClient(flagAPIAddr)

	var months []monthView
	if err := client.get("/economy", windowQuery(), &months); err != nil {
		return err
	}

	if len(months) == 0 {
		fmt.Println("No months in the projected window.")
		return nil
	}

	fmt.Println()
	tw := newTable(os.Stdout)
	printHeader(tw, "MONTH", "IN", "OUT", "ECONOMY", "CLOSE", "SAVINGS")
	for _, m := range months {
		printRow(tw,
			m.YearMonth,
			formatCents(m.IncomeCents),
			formatCents(m.ExpenseCents),
			formatCents(m.EconomyCents),
			formatCents(m.EndCents),
			formatPercent(m.SavingsRate),
		)
	}
	tw.Flush()
	return nil
}
