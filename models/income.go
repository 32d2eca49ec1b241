package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income is a dated money-in record. ExternalID is set for imported or synced rows.
type Income struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     uint            `gorm:"index;not null;uniqueIndex:idx_incomes_user_ext"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Source     string          `gorm:"size:255"`
	Date       time.Time       `gorm:"type:date;index;not null"`
	ExternalID *string         `gorm:"size:128;uniqueIndex:idx_incomes_user_ext"`
	AccountID  *uint           `gorm:"index"`
}
