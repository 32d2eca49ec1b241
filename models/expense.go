package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a dated money-out record. Category is free text, not a foreign key.
type Expense struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint            `gorm:"index;not null;uniqueIndex:idx_expenses_user_ext"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Category    string          `gorm:"size:100;index;not null"`
	Description string          `gorm:"size:255"`
	Date        time.Time       `gorm:"type:date;index;not null"`
	ExternalID  *string         `gorm:"size:128;uniqueIndex:idx_expenses_user_ext"`
	AccountID   *uint           `gorm:"index"`
}
