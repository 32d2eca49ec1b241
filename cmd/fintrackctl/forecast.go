package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"fintrack/pkg/cli"
	"fintrack/pkg/forecast"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagEvery int

var forecastCmd = &cobra.Command{
	Use:   "forecast [statement files...]",
	Short: "90 day balance projection",
	Long: "Print the balance projection for --user. With --dry-run the given CSV/OFX/QFX\n" +
		"statements are loaded into an in-memory ledger first, so nothing touches the database.",
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().IntVar(&flagEvery, "every", 7, "Print one table row every N days")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	if len(args) > 0 && !flagDryRun {
		return fmt.Errorf("statement files are only read with --dry-run; use `fintrackctl import` to store them")
	}
	for _, path := range args {
		if _, err := importPath(s, path, nil); err != nil {
			return err
		}
	}
	src, err := forecast.NewBalanceSource(s.cfg.Forecast.BalanceSource, s.store)
	if err != nil {
		return err
	}
	res, err := forecast.NewEngine(s.store, forecast.WithBalanceSource(src)).Forecast(s.ctx, s.userID)
	if err != nil {
		return err
	}
	printForecast(res)
	return nil
}

func printForecast(res forecast.Result) {
	money := func(v float64) string { return cli.FormatMoney(decimal.NewFromFloat(v)) }
	last := res.Projection[len(res.Projection)-1]

	fmt.Println()
	fmt.Println(cli.RenderTitle("FORECAST  next 90 days"))
	fmt.Println()
	fmt.Print(cli.KeyValue([][2]string{
		{"Balance today", cli.Signed(res.CurrentBalance, money(res.CurrentBalance))},
		{"Daily burn", money(res.DailyBurn)},
		{"Daily income", money(res.DailyIncome)},
		{"In 90 days", cli.Signed(last.Balance, money(last.Balance))},
	}))

	if len(res.Paydays) > 0 {
		days := make([]int, 0, len(res.Paydays))
		for d := range res.Paydays {
			days = append(days, d)
		}
		sort.Ints(days)
		pairs := make([][2]string, 0, len(days))
		for _, d := range days {
			pairs = append(pairs, [2]string{"Payday " + strconv.Itoa(d), money(res.Paydays[d])})
		}
		fmt.Println()
		fmt.Print(cli.KeyValue(pairs))
	}

	values := make([]float64, len(res.Projection))
	for i, p := range res.Projection {
		values[i] = p.Balance
	}
	fmt.Println()
	fmt.Println("  " + cli.RenderSparkline(values))
	fmt.Println()

	every := max(flagEvery, 1)
	var rows [][]string
	for i := 0; i < len(res.Projection); i += every {
		p := res.Projection[i]
		rows = append(rows, []string{p.Date, cli.Signed(p.Balance, money(p.Balance))})
	}
	if (len(res.Projection)-1)%every != 0 {
		rows = append(rows, []string{last.Date, cli.Signed(last.Balance, money(last.Balance))})
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Date", "Balance"}, Rows: rows}))
}

// importPath runs one statement file through the importer.
func importPath(s *session, path string, accountID *uint) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	res, err := s.importer.ImportFile(s.ctx, s.userID, filepath.Base(path), f, accountID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	fmt.Printf("%s: imported=%d duplicates=%d batch=%s\n", filepath.Base(path), res.Imported, res.Duplicates, res.BatchID)
	return res.Imported, nil
}
