package main

import (
	"fmt"
	"time"

	"fintrack/models"
	"fintrack/pkg/cli"
	"fintrack/pkg/ledger"
	"fintrack/process/report"

	"github.com/spf13/cobra"
)

var (
	flagMonth string
	flagList  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Monthly income, spending and budgets",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagMonth, "month", "m", "", "Month to report (YYYY-MM, default current)")
	reportCmd.Flags().BoolVar(&flagList, "list", false, "List the month's expenses")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	month := flagMonth
	if month == "" {
		month = ledger.MonthOf(time.Now().UTC())
	}
	m, err := report.Build(s.ctx, s.store, s.userID, month)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("REPORT  %s  %s", flagUser, m.Month)))
	fmt.Println()
	fmt.Print(cli.KeyValue([][2]string{
		{"Income", cli.FormatMoney(m.Income)},
		{"Spent", cli.FormatMoney(m.Expense)},
		{"Net", cli.Signed(m.Net().InexactFloat64(), cli.FormatMoney(m.Net()))},
	}))
	fmt.Println()

	if len(m.Categories) > 0 {
		rows := make([][]string, 0, len(m.Categories))
		for _, l := range m.Categories {
			budget, left := "-", "-"
			if !l.Budget.IsZero() {
				budget = cli.FormatMoney(l.Budget)
				left = cli.Signed(l.Remaining().InexactFloat64(), cli.FormatMoney(l.Remaining()))
			}
			rows = append(rows, []string{l.Category, cli.FormatMoney(l.Spent), budget, left})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "By category",
			Headers: []string{"Category", "Spent", "Budget", "Left"},
			Rows:    rows,
		}))
	}

	if flagList && s.gdb != nil {
		start, _ := ledger.ParseMonth(month)
		var rows []models.Expense
		err := s.gdb.Where("user_id = ? AND date >= ? AND date < ?", s.userID, start, start.AddDate(0, 1, 0)).
			Order("date, id").Find(&rows).Error
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		out := make([][]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, []string{r.Date.Format("2006-01-02"), r.Category, r.Description, cli.FormatMoney(r.Amount)})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Expenses",
			Headers: []string{"Date", "Category", "Description", "Amount"},
			Rows:    out,
		}))
	}
	return nil
}
