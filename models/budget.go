package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is the planned spend for one category in one month (YYYY-MM).
type Budget struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint            `gorm:"not null;uniqueIndex:idx_budgets_user_cat_month"`
	Category  string          `gorm:"size:100;not null;uniqueIndex:idx_budgets_user_cat_month"`
	Month     string          `gorm:"size:7;not null;uniqueIndex:idx_budgets_user_cat_month"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}

// MonthlyIncome is a manually entered income figure that replaces the
// history-based estimate for its month.
type MonthlyIncome struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint            `gorm:"not null;uniqueIndex:idx_monthly_incomes_user_month"`
	Month     string          `gorm:"size:7;not null;uniqueIndex:idx_monthly_incomes_user_month"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}
