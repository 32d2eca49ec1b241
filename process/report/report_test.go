package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/pkg/ledger"

	"github.com/shopspring/decimal"
)

func TestBuildMonthly(t *testing.T) {
	store := ledger.NewMemoryStore()
	may := func(d int) time.Time { return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC) }
	store.AddIncome(1, may(1), decimal.NewFromInt(3000), "Paycheck")
	store.AddIncome(1, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(3000), "Paycheck")
	store.AddExpense(1, may(3), decimal.NewFromInt(1200), "Housing", "rent")
	store.AddExpense(1, may(9), decimal.RequireFromString("80.40"), "Food", "groceries")
	store.AddExpense(1, may(21), decimal.RequireFromString("19.60"), "Food", "bakery")
	store.SetBudget(1, "Food", "2024-05", decimal.NewFromInt(90))
	store.SetBudget(1, "Fun", "2024-05", decimal.NewFromInt(50))

	m, err := Build(context.Background(), store, 1, "2024-05")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !m.Income.Equal(decimal.NewFromInt(3000)) || !m.Expense.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("unexpected totals income=%s expense=%s", m.Income, m.Expense)
	}
	if !m.Net().Equal(decimal.NewFromInt(1700)) {
		t.Fatalf("expected net 1700 got %s", m.Net())
	}
	want := []string{"Housing", "Food", "Fun"}
	if len(m.Categories) != len(want) {
		t.Fatalf("expected %v got %+v", want, m.Categories)
	}
	for i, name := range want {
		if m.Categories[i].Category != name {
			t.Fatalf("position %d: expected %s got %s", i, name, m.Categories[i].Category)
		}
	}
	if food := m.Categories[1]; !food.Remaining().Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("food should be overspent by 10, got %s", food.Remaining())
	}
}

func TestBuildRejectsBadMonth(t *testing.T) {
	if _, err := Build(context.Background(), ledger.NewMemoryStore(), 1, "May"); !errors.Is(err, ledger.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth got %v", err)
	}
}
