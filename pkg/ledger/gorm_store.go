package ledger

import (
	"context"
	"errors"
	"time"

	"fintrack/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of the gorm models.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (s *GormStore) sumAmount(ctx context.Context, model any, userID uint, from, to *time.Time) (decimal.Decimal, error) {
	q := s.db.WithContext(ctx).Model(model).Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("date >= ?", DateOnly(*from))
	}
	if to != nil {
		q = q.Where("date < ?", DateOnly(*to))
	}
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *GormStore) SumExpenses(ctx context.Context, userID uint, from, to *time.Time) (decimal.Decimal, error) {
	total, err := s.sumAmount(ctx, &models.Expense{}, userID, from, to)
	if err != nil {
		return decimal.Zero, dataErr("sum expenses", err)
	}
	return total, nil
}

func (s *GormStore) SumIncomes(ctx context.Context, userID uint, from, to *time.Time) (decimal.Decimal, error) {
	total, err := s.sumAmount(ctx, &models.Income{}, userID, from, to)
	if err != nil {
		return decimal.Zero, dataErr("sum incomes", err)
	}
	return total, nil
}

func (s *GormStore) CategoryTotals(ctx context.Context, userID uint, from, to *time.Time) (map[string]decimal.Decimal, error) {
	q := s.db.WithContext(ctx).Model(&models.Expense{}).Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("date >= ?", DateOnly(*from))
	}
	if to != nil {
		q = q.Where("date < ?", DateOnly(*to))
	}
	rows, err := q.Select("category, COALESCE(SUM(amount), 0)").Group("category").Rows()
	if err != nil {
		return nil, dataErr("category totals", err)
	}
	defer rows.Close()
	out := map[string]decimal.Decimal{}
	for rows.Next() {
		var cat string
		var total decimal.Decimal
		if err := rows.Scan(&cat, &total); err != nil {
			return nil, dataErr("category totals", err)
		}
		out[cat] = total
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("category totals", err)
	}
	return out, nil
}

func (s *GormStore) ListIncomes(ctx context.Context, userID uint, from time.Time) ([]IncomePoint, error) {
	var rows []models.Income
	err := s.db.WithContext(ctx).
		Select("date", "amount").
		Where("user_id = ? AND date >= ?", userID, DateOnly(from)).
		Order("date, id").
		Find(&rows).Error
	if err != nil {
		return nil, dataErr("list incomes", err)
	}
	out := make([]IncomePoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, IncomePoint{Date: DateOnly(r.Date), Amount: r.Amount})
	}
	return out, nil
}

func (s *GormStore) ManualIncomeOverride(ctx context.Context, userID uint, month string) (*decimal.Decimal, error) {
	if _, err := ParseMonth(month); err != nil {
		return nil, err
	}
	var mi models.MonthlyIncome
	err := s.db.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).First(&mi).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dataErr("manual income", err)
	}
	amt := mi.Amount
	return &amt, nil
}

func (s *GormStore) ListBudgets(ctx context.Context, userID uint, month string) ([]BudgetLine, error) {
	if _, err := ParseMonth(month); err != nil {
		return nil, err
	}
	var rows []models.Budget
	if err := s.db.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).Order("category").Find(&rows).Error; err != nil {
		return nil, dataErr("list budgets", err)
	}
	out := make([]BudgetLine, 0, len(rows))
	for _, b := range rows {
		out = append(out, BudgetLine{Category: b.Category, Amount: b.Amount})
	}
	return out, nil
}

func (s *GormStore) SumAccountBalances(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(balance), 0)").
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, dataErr("sum accounts", err)
	}
	return total, nil
}

func toMapping(m models.CategoryMapping) Mapping {
	return Mapping{ID: m.ID, Keyword: m.Keyword, Category: m.Category, Count: m.Count}
}

func (s *GormStore) FindMapping(ctx context.Context, userID uint, keyword string) (*Mapping, error) {
	var m models.CategoryMapping
	err := s.db.WithContext(ctx).Where("user_id = ? AND keyword = ?", userID, keyword).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dataErr("find mapping", err)
	}
	out := toMapping(m)
	return &out, nil
}

func (s *GormStore) ListMappings(ctx context.Context, userID uint) ([]Mapping, error) {
	var rows []models.CategoryMapping
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, dataErr("list mappings", err)
	}
	out := make([]Mapping, 0, len(rows))
	for _, m := range rows {
		out = append(out, toMapping(m))
	}
	return out, nil
}

// UpsertMapping relies on INSERT .. ON CONFLICT so concurrent learners never
// create two rows for one keyword. SET expressions see the old row, so the
// count comparison uses the category stored before this call.
func (s *GormStore) UpsertMapping(ctx context.Context, userID uint, keyword, category string) (Mapping, error) {
	row := models.CategoryMapping{UserID: userID, Keyword: keyword, Category: category, Count: 1}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "keyword"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("CASE WHEN category_mappings.category = excluded.category THEN category_mappings.count + 1 ELSE 1 END"),
			"category":   gorm.Expr("excluded.category"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&row).Error
	if err != nil {
		return Mapping{}, dataErr("upsert mapping", err)
	}
	m, err := s.FindMapping(ctx, userID, keyword)
	if err != nil {
		return Mapping{}, err
	}
	if m == nil {
		return Mapping{}, dataErr("upsert mapping", gorm.ErrRecordNotFound)
	}
	return *m, nil
}

func (s *GormStore) ListCategories(ctx context.Context, userID uint) ([]CategoryRow, error) {
	db := s.db.WithContext(ctx)
	var cnt int64
	if err := db.Model(&models.Category{}).Where("user_id = ?", userID).Count(&cnt).Error; err != nil {
		return nil, dataErr("count categories", err)
	}
	if cnt == 0 {
		seed := make([]models.Category, 0, len(DefaultCategories))
		for _, name := range DefaultCategories {
			seed = append(seed, models.Category{UserID: userID, Name: name})
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return nil, dataErr("seed categories", err)
		}
	}
	var rows []models.Category
	if err := db.Where("user_id = ?", userID).Order("name").Find(&rows).Error; err != nil {
		return nil, dataErr("list categories", err)
	}
	out := make([]CategoryRow, 0, len(rows))
	for _, c := range rows {
		out = append(out, CategoryRow{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, userID uint, name string) (CategoryRow, error) {
	c := models.Category{UserID: userID, Name: name}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		if IsUniqueViolation(err) {
			return CategoryRow{}, ErrDuplicate
		}
		return CategoryRow{}, dataErr("create category", err)
	}
	return CategoryRow{ID: c.ID, Name: c.Name}, nil
}

func (s *GormStore) GetCategory(ctx context.Context, userID, id uint) (CategoryRow, error) {
	c, err := findCategory(s.db.WithContext(ctx), userID, id)
	if err != nil {
		return CategoryRow{}, err
	}
	return CategoryRow{ID: c.ID, Name: c.Name}, nil
}

func findCategory(tx *gorm.DB, userID, id uint) (models.Category, error) {
	var c models.Category
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, dataErr("find category", err)
	}
	return c, nil
}

// referencing lists the tables whose free-text category column follows a rename.
var referencing = []any{&models.Expense{}, &models.Budget{}, &models.CategoryMapping{}}

func (s *GormStore) RenameCategory(ctx context.Context, userID, id uint, newName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCategory(tx, userID, id)
		if err != nil {
			return err
		}
		if c.Name == newName {
			return nil
		}
		var clash int64
		if err := tx.Model(&models.Category{}).Where("user_id = ? AND name = ?", userID, newName).Count(&clash).Error; err != nil {
			return dataErr("rename category", err)
		}
		if clash > 0 {
			return ErrDuplicate
		}
		if err := tx.Model(&c).Update("name", newName).Error; err != nil {
			return dataErr("rename category", err)
		}
		for _, m := range referencing {
			if err := tx.Model(m).Where("user_id = ? AND category = ?", userID, c.Name).Update("category", newName).Error; err != nil {
				return dataErr("rename cascade", err)
			}
		}
		return nil
	})
}

func (s *GormStore) DeleteCategory(ctx context.Context, userID, id uint, target string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := findCategory(tx, userID, id)
		if err != nil {
			return err
		}
		fallback := models.Category{UserID: userID, Name: target}
		if err := tx.Where("user_id = ? AND name = ?", userID, target).FirstOrCreate(&fallback).Error; err != nil {
			return dataErr("ensure fallback category", err)
		}
		// a month budgeted under both names would violate the unique key, fold it into target first
		if err := tx.Exec(`UPDATE budgets t SET amount = t.amount + o.amount
			FROM budgets o
			WHERE t.user_id = ? AND t.category = ? AND o.user_id = t.user_id AND o.category = ? AND o.month = t.month`,
			userID, target, c.Name).Error; err != nil {
			return dataErr("merge budgets", err)
		}
		if err := tx.Exec(`DELETE FROM budgets o
			WHERE o.user_id = ? AND o.category = ?
			AND EXISTS (SELECT 1 FROM budgets t WHERE t.user_id = o.user_id AND t.category = ? AND t.month = o.month)`,
			userID, c.Name, target).Error; err != nil {
			return dataErr("merge budgets", err)
		}
		for _, m := range referencing {
			if err := tx.Model(m).Where("user_id = ? AND category = ?", userID, c.Name).Update("category", target).Error; err != nil {
				return dataErr("reassign category", err)
			}
		}
		if err := tx.Delete(&c).Error; err != nil {
			return dataErr("delete category", err)
		}
		return nil
	})
}

func (s *GormStore) ExternalIDExists(ctx context.Context, userID uint, externalID string) (bool, error) {
	db := s.db.WithContext(ctx)
	for _, m := range []any{&models.Income{}, &models.Expense{}} {
		var cnt int64
		if err := db.Model(m).Where("user_id = ? AND external_id = ?", userID, externalID).Count(&cnt).Error; err != nil {
			return false, dataErr("external id lookup", err)
		}
		if cnt > 0 {
			return true, nil
		}
	}
	return false, nil
}

func externalIDPtr(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func (s *GormStore) InsertIncome(ctx context.Context, userID uint, t Transaction, source string) error {
	row := models.Income{
		UserID:     userID,
		Amount:     t.Amount.Abs(),
		Source:     source,
		Date:       DateOnly(t.Date),
		ExternalID: externalIDPtr(t.ExternalID),
		AccountID:  t.AccountID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return dataErr("insert income", err)
	}
	return nil
}

func (s *GormStore) InsertExpense(ctx context.Context, userID uint, t Transaction, category string) error {
	row := models.Expense{
		UserID:      userID,
		Amount:      t.Amount.Abs(),
		Category:    category,
		Description: t.Description,
		Date:        DateOnly(t.Date),
		ExternalID:  externalIDPtr(t.ExternalID),
		AccountID:   t.AccountID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return dataErr("insert expense", err)
	}
	return nil
}

func (s *GormStore) AdjustAccountBalance(ctx context.Context, userID, accountID uint, delta decimal.Decimal, syncedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		Updates(map[string]any{
			"balance":     gorm.Expr("balance + ?", delta),
			"last_synced": syncedAt,
		})
	if res.Error != nil {
		return dataErr("adjust account", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
