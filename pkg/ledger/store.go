// Package ledger is the data-access layer for incomes, expenses, budgets and
// category mappings. The forecast and categorization engines only see the
// interfaces declared here; GormStore backs them with Postgres and
// MemoryStore keeps everything in process for tests and dry runs.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory receives rows whose category was deleted and imports nobody categorized.
const DefaultCategory = "Other"

// DefaultCategories are seeded for a user the first time their category list is read.
var DefaultCategories = []string{"Housing", "Food", "Transport", "Utilities", "Entertainment", "Shopping", "Healthcare", DefaultCategory}

var (
	// ErrDataAccess wraps every storage failure.
	ErrDataAccess = errors.New("data access failed")
	// ErrInvalidMonth is returned for month strings that are not YYYY-MM.
	ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")
	// ErrNotFound is returned when a row does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("already exists")
)

// IncomePoint is a single dated income amount.
type IncomePoint struct {
	Date   time.Time
	Amount decimal.Decimal
}

// BudgetLine is one category budget within a month.
type BudgetLine struct {
	Category string
	Amount   decimal.Decimal
}

// Mapping is a learned keyword -> category association.
type Mapping struct {
	ID       uint
	Keyword  string
	Category string
	Count    int
}

// CategoryRow is a stored category name.
type CategoryRow struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Transaction is a normalized imported or synced bank transaction.
// Negative amounts are money out.
type Transaction struct {
	ExternalID  string
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	AccountID   *uint
	// Source labels deposits; empty means the importer default.
	Source string
}

// Reader is the read side the forecast engine needs. Date bounds are
// inclusive for from and exclusive for to; nil means unbounded.
type Reader interface {
	SumExpenses(ctx context.Context, userID uint, from, to *time.Time) (decimal.Decimal, error)
	SumIncomes(ctx context.Context, userID uint, from, to *time.Time) (decimal.Decimal, error)
	// CategoryTotals sums expenses per category.
	CategoryTotals(ctx context.Context, userID uint, from, to *time.Time) (map[string]decimal.Decimal, error)
	ListIncomes(ctx context.Context, userID uint, from time.Time) ([]IncomePoint, error)
	ManualIncomeOverride(ctx context.Context, userID uint, month string) (*decimal.Decimal, error)
	ListBudgets(ctx context.Context, userID uint, month string) ([]BudgetLine, error)
	SumAccountBalances(ctx context.Context, userID uint) (decimal.Decimal, error)
}

// MappingStore persists learned category mappings. ListMappings returns
// mappings in creation order.
type MappingStore interface {
	FindMapping(ctx context.Context, userID uint, keyword string) (*Mapping, error)
	ListMappings(ctx context.Context, userID uint) ([]Mapping, error)
	UpsertMapping(ctx context.Context, userID uint, keyword, category string) (Mapping, error)
}

// CategoryStore manages category names and the cascades that keep free-text
// category columns consistent.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID uint) ([]CategoryRow, error)
	CreateCategory(ctx context.Context, userID uint, name string) (CategoryRow, error)
	GetCategory(ctx context.Context, userID, id uint) (CategoryRow, error)
	// RenameCategory renames the category row and every expense, budget and
	// mapping of the user that references the old name in one transaction.
	RenameCategory(ctx context.Context, userID, id uint, newName string) error
	// DeleteCategory moves every reference to target (created when missing)
	// and removes the category in one transaction.
	DeleteCategory(ctx context.Context, userID, id uint, target string) error
}

// TransactionStore writes imported transactions.
type TransactionStore interface {
	// ExternalIDExists reports whether an income or expense of the user carries the id.
	ExternalIDExists(ctx context.Context, userID uint, externalID string) (bool, error)
	InsertIncome(ctx context.Context, userID uint, tx Transaction, source string) error
	InsertExpense(ctx context.Context, userID uint, tx Transaction, category string) error
	// AdjustAccountBalance adds delta to an account of the user and stamps it as synced.
	AdjustAccountBalance(ctx context.Context, userID, accountID uint, delta decimal.Decimal, syncedAt time.Time) error
}

// Store is everything the service needs from the ledger.
type Store interface {
	Reader
	MappingStore
	CategoryStore
	TransactionStore
}

// ParseMonth validates a YYYY-MM string and returns the first day of that month in UTC.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// MonthOf formats t as YYYY-MM.
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dataErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDataAccess, op, err)
}
