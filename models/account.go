package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank or cash account. Manual accounts are edited by the user,
// the others are refreshed by the bank feed.
type Account struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     uint            `gorm:"index;not null"`
	Name       string          `gorm:"size:255;not null"`
	Balance    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Type       string          `gorm:"size:32;not null;default:checking"`
	IsManual   bool            `gorm:"default:true"`
	ExternalID *string         `gorm:"size:128;index"`
	LastSynced *time.Time
}
