// Package report builds the monthly income, spending and budget summary the
// operator CLI prints.
package report

import (
	"context"
	"sort"

	"fintrack/pkg/ledger"

	"github.com/shopspring/decimal"
)

// CategoryLine is spending against budget for one category.
type CategoryLine struct {
	Category string
	Spent    decimal.Decimal
	Budget   decimal.Decimal
}

// Remaining is budget minus spent; negative when overspent.
func (l CategoryLine) Remaining() decimal.Decimal {
	return l.Budget.Sub(l.Spent)
}

// Monthly is the report for one month (YYYY-MM, UTC).
type Monthly struct {
	Month      string
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Categories []CategoryLine
}

func (m Monthly) Net() decimal.Decimal {
	return m.Income.Sub(m.Expense)
}

// Build reads the month's totals for userID. Categories with a budget but no
// spending are included; the list is sorted by spending, largest first.
func Build(ctx context.Context, r ledger.Reader, userID uint, month string) (Monthly, error) {
	start, err := ledger.ParseMonth(month)
	if err != nil {
		return Monthly{}, err
	}
	end := start.AddDate(0, 1, 0)

	out := Monthly{Month: month}
	if out.Income, err = r.SumIncomes(ctx, userID, &start, &end); err != nil {
		return Monthly{}, err
	}
	if out.Expense, err = r.SumExpenses(ctx, userID, &start, &end); err != nil {
		return Monthly{}, err
	}
	spent, err := r.CategoryTotals(ctx, userID, &start, &end)
	if err != nil {
		return Monthly{}, err
	}
	budgets, err := r.ListBudgets(ctx, userID, month)
	if err != nil {
		return Monthly{}, err
	}

	lines := map[string]*CategoryLine{}
	for cat, amt := range spent {
		lines[cat] = &CategoryLine{Category: cat, Spent: amt}
	}
	for _, b := range budgets {
		l, ok := lines[b.Category]
		if !ok {
			l = &CategoryLine{Category: b.Category}
			lines[b.Category] = l
		}
		l.Budget = b.Amount
	}
	for _, l := range lines {
		out.Categories = append(out.Categories, *l)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		a, b := out.Categories[i], out.Categories[j]
		if c := a.Spent.Cmp(b.Spent); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})
	return out, nil
}
