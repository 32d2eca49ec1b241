package categorize

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/pkg/ledger"

	"github.com/shopspring/decimal"
)

func categoryID(t *testing.T, c *Catalog, userID uint, name string) uint {
	t.Helper()
	rows, err := c.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range rows {
		if r.Name == name {
			return r.ID
		}
	}
	t.Fatalf("category %q not found in %+v", name, rows)
	return 0
}

func TestListSeedsDefaults(t *testing.T) {
	c := NewCatalog(ledger.NewMemoryStore())
	names, err := c.Names(context.Background(), 7)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != len(ledger.DefaultCategories) {
		t.Fatalf("expected %d defaults got %v", len(ledger.DefaultCategories), names)
	}
}

func TestAddRejectsEmptyAndDuplicate(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(ledger.NewMemoryStore())
	if _, err := c.Add(ctx, 1, "  "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName got %v", err)
	}
	if _, err := c.Add(ctx, 1, "Pets"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.Add(ctx, 1, "Pets"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory got %v", err)
	}
	if _, err := c.Add(ctx, 1, "Food"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("default names count as existing, got %v", err)
	}
}

func TestRenameCascades(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	c := NewCatalog(store)
	l := NewLearner(store)
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	store.AddExpense(1, today, decimal.NewFromInt(12), "Food", "pizza")
	store.AddExpense(2, today, decimal.NewFromInt(30), "Food", "other user pizza")
	store.SetBudget(1, "Food", "2024-05", decimal.NewFromInt(300))
	store.SetBudget(2, "Food", "2024-05", decimal.NewFromInt(100))
	_ = l.Learn(ctx, 1, "pizza", "Food")
	_ = l.Learn(ctx, 2, "pizza", "Food")

	if err := c.Rename(ctx, 1, categoryID(t, c, 1, "Food"), "Dining"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	for _, e := range store.Expenses(1) {
		if e.Category != "Dining" {
			t.Fatalf("expense not renamed: %+v", e)
		}
	}
	if b := store.BudgetCategories(1, "2024-05"); !b["Dining"].Equal(decimal.NewFromInt(300)) {
		t.Fatalf("budget not renamed: %v", b)
	}
	if s, _ := l.Suggest(ctx, 1, "pizza"); s.Category != "Dining" {
		t.Fatalf("mapping not renamed: %+v", s)
	}

	// the other user is untouched
	for _, e := range store.Expenses(2) {
		if e.Category != "Food" {
			t.Fatalf("other user's expense changed: %+v", e)
		}
	}
	if b := store.BudgetCategories(2, "2024-05"); !b["Food"].Equal(decimal.NewFromInt(100)) {
		t.Fatalf("other user's budget changed: %v", b)
	}
	if s, _ := l.Suggest(ctx, 2, "pizza"); s.Category != "Food" {
		t.Fatalf("other user's mapping changed: %+v", s)
	}
}

func TestRenameValidation(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(ledger.NewMemoryStore())
	id := categoryID(t, c, 1, "Food")
	if err := c.Rename(ctx, 1, id, ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName got %v", err)
	}
	if err := c.Rename(ctx, 1, id, "Shopping"); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory got %v", err)
	}
	if err := c.Rename(ctx, 1, 9999, "X"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound got %v", err)
	}
}

func TestDeleteOtherRejected(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(ledger.NewMemoryStore())
	if err := c.Delete(ctx, 1, categoryID(t, c, 1, ledger.DefaultCategory)); !errors.Is(err, ErrProtectedCategory) {
		t.Fatalf("expected ErrProtectedCategory got %v", err)
	}
}

func TestDeleteReassignsToOther(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	c := NewCatalog(store)
	l := NewLearner(store)
	store.AddExpense(1, time.Now(), decimal.NewFromInt(40), "Entertainment", "cinema")
	_ = l.Learn(ctx, 1, "cinema", "Entertainment")

	if err := c.Delete(ctx, 1, categoryID(t, c, 1, "Entertainment")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e := store.Expenses(1); e[0].Category != ledger.DefaultCategory {
		t.Fatalf("expense not reassigned: %+v", e)
	}
	if s, _ := l.Suggest(ctx, 1, "cinema"); s.Category != ledger.DefaultCategory {
		t.Fatalf("mapping not reassigned: %+v", s)
	}
	names, _ := c.Names(ctx, 1)
	for _, n := range names {
		if n == "Entertainment" {
			t.Fatalf("category still listed: %v", names)
		}
	}
}

func TestDeleteRecreatesMissingOther(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	c := NewCatalog(store)
	// rename Other away so the fallback has to be created again
	if err := c.Rename(ctx, 1, categoryID(t, c, 1, ledger.DefaultCategory), "Misc"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := c.Delete(ctx, 1, categoryID(t, c, 1, "Food")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	categoryID(t, c, 1, ledger.DefaultCategory)
}
