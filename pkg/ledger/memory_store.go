package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryExpense is the in-memory expense row.
type MemoryExpense struct {
	UserID      uint
	Date        time.Time
	Amount      decimal.Decimal
	Category    string
	Description string
	ExternalID  string
}

// MemoryIncome is the in-memory income row.
type MemoryIncome struct {
	UserID     uint
	Date       time.Time
	Amount     decimal.Decimal
	Source     string
	ExternalID string
}

type memoryBudget struct {
	UserID   uint
	Category string
	Month    string
	Amount   decimal.Decimal
}

type memoryAccount struct {
	UserID  uint
	ID      uint
	Balance decimal.Decimal
}

type memoryMapping struct {
	UserID uint
	Mapping
}

type memoryCategory struct {
	UserID uint
	CategoryRow
}

// MemoryStore implements Store with in-process slices guarded by a RWMutex.
type MemoryStore struct {
	mu sync.RWMutex

	incomes    []MemoryIncome
	expenses   []MemoryExpense
	budgets    []memoryBudget
	overrides  map[uint]map[string]decimal.Decimal
	accounts   []memoryAccount
	mappings   []memoryMapping
	categories []memoryCategory
	nextID     uint
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		overrides: make(map[uint]map[string]decimal.Decimal),
	}
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

// AddIncome records an income.
func (m *MemoryStore) AddIncome(userID uint, date time.Time, amount decimal.Decimal, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incomes = append(m.incomes, MemoryIncome{UserID: userID, Date: DateOnly(date), Amount: amount, Source: source})
}

// AddExpense records an expense.
func (m *MemoryStore) AddExpense(userID uint, date time.Time, amount decimal.Decimal, category, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, MemoryExpense{UserID: userID, Date: DateOnly(date), Amount: amount, Category: category, Description: description})
}

// SetBudget upserts a budget for (user, category, month).
func (m *MemoryStore) SetBudget(userID uint, category, month string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.budgets {
		b := &m.budgets[i]
		if b.UserID == userID && b.Category == category && b.Month == month {
			b.Amount = amount
			return
		}
	}
	m.budgets = append(m.budgets, memoryBudget{UserID: userID, Category: category, Month: month, Amount: amount})
}

// SetManualIncome upserts the manual income override for a month.
func (m *MemoryStore) SetManualIncome(userID uint, month string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overrides[userID] == nil {
		m.overrides[userID] = make(map[string]decimal.Decimal)
	}
	m.overrides[userID][month] = amount
}

// AddAccountBalance adds an account with the given balance and returns its id.
func (m *MemoryStore) AddAccountBalance(userID uint, balance decimal.Decimal) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.accounts = append(m.accounts, memoryAccount{UserID: userID, ID: id, Balance: balance})
	return id
}

// Expenses returns a copy of the user's expenses.
func (m *MemoryStore) Expenses(userID uint) []MemoryExpense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []MemoryExpense
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// Incomes returns a copy of the user's incomes.
func (m *MemoryStore) Incomes(userID uint) []MemoryIncome {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []MemoryIncome
	for _, in := range m.incomes {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	return out
}

// BudgetCategories returns category -> amount for the user's budgets in month.
func (m *MemoryStore) BudgetCategories(userID uint, month string) map[string]decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]decimal.Decimal{}
	for _, b := range m.budgets {
		if b.UserID == userID && b.Month == month {
			out[b.Category] = b.Amount
		}
	}
	return out
}

func inRange(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(DateOnly(*from)) {
		return false
	}
	if to != nil && !d.Before(DateOnly(*to)) {
		return false
	}
	return true
}

func (m *MemoryStore) SumExpenses(_ context.Context, userID uint, from, to *time.Time) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, e := range m.expenses {
		if e.UserID == userID && inRange(e.Date, from, to) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (m *MemoryStore) SumIncomes(_ context.Context, userID uint, from, to *time.Time) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, in := range m.incomes {
		if in.UserID == userID && inRange(in.Date, from, to) {
			total = total.Add(in.Amount)
		}
	}
	return total, nil
}

func (m *MemoryStore) CategoryTotals(_ context.Context, userID uint, from, to *time.Time) (map[string]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]decimal.Decimal{}
	for _, e := range m.expenses {
		if e.UserID == userID && inRange(e.Date, from, to) {
			out[e.Category] = out[e.Category].Add(e.Amount)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListIncomes(_ context.Context, userID uint, from time.Time) ([]IncomePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []IncomePoint
	for _, in := range m.incomes {
		if in.UserID == userID && inRange(in.Date, &from, nil) {
			out = append(out, IncomePoint{Date: in.Date, Amount: in.Amount})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryStore) ManualIncomeOverride(_ context.Context, userID uint, month string) (*decimal.Decimal, error) {
	if _, err := ParseMonth(month); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if amt, ok := m.overrides[userID][month]; ok {
		return &amt, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListBudgets(_ context.Context, userID uint, month string) ([]BudgetLine, error) {
	if _, err := ParseMonth(month); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []BudgetLine
	for _, b := range m.budgets {
		if b.UserID == userID && b.Month == month {
			out = append(out, BudgetLine{Category: b.Category, Amount: b.Amount})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *MemoryStore) SumAccountBalances(_ context.Context, userID uint) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, a := range m.accounts {
		if a.UserID == userID {
			total = total.Add(a.Balance)
		}
	}
	return total, nil
}

func (m *MemoryStore) FindMapping(_ context.Context, userID uint, keyword string) (*Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mm := range m.mappings {
		if mm.UserID == userID && mm.Keyword == keyword {
			out := mm.Mapping
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListMappings(_ context.Context, userID uint) ([]Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Mapping
	for _, mm := range m.mappings {
		if mm.UserID == userID {
			out = append(out, mm.Mapping)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpsertMapping(_ context.Context, userID uint, keyword, category string) (Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.mappings {
		mm := &m.mappings[i]
		if mm.UserID != userID || mm.Keyword != keyword {
			continue
		}
		if mm.Category == category {
			mm.Count++
		} else {
			mm.Category = category
			mm.Count = 1
		}
		return mm.Mapping, nil
	}
	mm := memoryMapping{UserID: userID, Mapping: Mapping{ID: m.id(), Keyword: keyword, Category: category, Count: 1}}
	m.mappings = append(m.mappings, mm)
	return mm.Mapping, nil
}

func (m *MemoryStore) ListCategories(_ context.Context, userID uint) ([]CategoryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CategoryRow
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, c.CategoryRow)
		}
	}
	if len(out) == 0 {
		for _, name := range DefaultCategories {
			row := CategoryRow{ID: m.id(), Name: name}
			m.categories = append(m.categories, memoryCategory{UserID: userID, CategoryRow: row})
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) findCategoryLocked(userID uint, match func(CategoryRow) bool) int {
	for i, c := range m.categories {
		if c.UserID == userID && match(c.CategoryRow) {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) CreateCategory(_ context.Context, userID uint, name string) (CategoryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findCategoryLocked(userID, func(c CategoryRow) bool { return c.Name == name }) >= 0 {
		return CategoryRow{}, ErrDuplicate
	}
	row := CategoryRow{ID: m.id(), Name: name}
	m.categories = append(m.categories, memoryCategory{UserID: userID, CategoryRow: row})
	return row, nil
}

func (m *MemoryStore) GetCategory(_ context.Context, userID, id uint) (CategoryRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.findCategoryLocked(userID, func(c CategoryRow) bool { return c.ID == id })
	if i < 0 {
		return CategoryRow{}, ErrNotFound
	}
	return m.categories[i].CategoryRow, nil
}

func (m *MemoryStore) recategorizeLocked(userID uint, from, to string) {
	for i := range m.expenses {
		if m.expenses[i].UserID == userID && m.expenses[i].Category == from {
			m.expenses[i].Category = to
		}
	}
	moved := []memoryBudget{}
	kept := make([]memoryBudget, 0, len(m.budgets))
	for _, b := range m.budgets {
		if b.UserID == userID && b.Category == from {
			moved = append(moved, b)
			continue
		}
		kept = append(kept, b)
	}
	for _, b := range moved {
		merged := false
		for j := range kept {
			if kept[j].UserID == userID && kept[j].Category == to && kept[j].Month == b.Month {
				kept[j].Amount = kept[j].Amount.Add(b.Amount)
				merged = true
				break
			}
		}
		if !merged {
			b.Category = to
			kept = append(kept, b)
		}
	}
	m.budgets = kept
	for i := range m.mappings {
		if m.mappings[i].UserID == userID && m.mappings[i].Category == from {
			m.mappings[i].Category = to
		}
	}
}

func (m *MemoryStore) RenameCategory(_ context.Context, userID, id uint, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findCategoryLocked(userID, func(c CategoryRow) bool { return c.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	old := m.categories[i].Name
	if old == newName {
		return nil
	}
	if m.findCategoryLocked(userID, func(c CategoryRow) bool { return c.Name == newName }) >= 0 {
		return ErrDuplicate
	}
	m.categories[i].Name = newName
	m.recategorizeLocked(userID, old, newName)
	return nil
}

func (m *MemoryStore) DeleteCategory(_ context.Context, userID, id uint, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findCategoryLocked(userID, func(c CategoryRow) bool { return c.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	old := m.categories[i].Name
	if m.findCategoryLocked(userID, func(c CategoryRow) bool { return c.Name == target }) < 0 {
		m.categories = append(m.categories, memoryCategory{UserID: userID, CategoryRow: CategoryRow{ID: m.id(), Name: target}})
	}
	m.recategorizeLocked(userID, old, target)
	i = m.findCategoryLocked(userID, func(c CategoryRow) bool { return c.ID == id })
	m.categories = append(m.categories[:i], m.categories[i+1:]...)
	return nil
}

func (m *MemoryStore) ExternalIDExists(_ context.Context, userID uint, externalID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, in := range m.incomes {
		if in.UserID == userID && in.ExternalID == externalID {
			return true, nil
		}
	}
	for _, e := range m.expenses {
		if e.UserID == userID && e.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) existsLocked(userID uint, externalID string) bool {
	if externalID == "" {
		return false
	}
	for _, in := range m.incomes {
		if in.UserID == userID && in.ExternalID == externalID {
			return true
		}
	}
	for _, e := range m.expenses {
		if e.UserID == userID && e.ExternalID == externalID {
			return true
		}
	}
	return false
}

func (m *MemoryStore) InsertIncome(_ context.Context, userID uint, t Transaction, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsLocked(userID, t.ExternalID) {
		return ErrDuplicate
	}
	m.incomes = append(m.incomes, MemoryIncome{UserID: userID, Date: DateOnly(t.Date), Amount: t.Amount.Abs(), Source: source, ExternalID: t.ExternalID})
	return nil
}

func (m *MemoryStore) InsertExpense(_ context.Context, userID uint, t Transaction, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsLocked(userID, t.ExternalID) {
		return ErrDuplicate
	}
	m.expenses = append(m.expenses, MemoryExpense{UserID: userID, Date: DateOnly(t.Date), Amount: t.Amount.Abs(), Category: category, Description: t.Description, ExternalID: t.ExternalID})
	return nil
}

func (m *MemoryStore) AdjustAccountBalance(_ context.Context, userID, accountID uint, delta decimal.Decimal, syncedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.accounts {
		if m.accounts[i].UserID == userID && m.accounts[i].ID == accountID {
			m.accounts[i].Balance = m.accounts[i].Balance.Add(delta)
			return nil
		}
	}
	return ErrNotFound
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
