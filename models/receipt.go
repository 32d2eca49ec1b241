package models

import (
	"time"
)

// Receipt is an uploaded receipt image. ExpenseID is set once OCR produced an expense.
type Receipt struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint     `gorm:"index;not null"`
	FileName    string   `gorm:"size:255;not null"`
	StorePath   string   `gorm:"column:store_path;size:512"` // relative to the upload base
	ContentType string   `gorm:"size:128"`
	ExpenseID   *uint    `gorm:"index"`
	Expense     *Expense `gorm:"foreignKey:ExpenseID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	// OCR failures keep the row so the user can enter the amount by hand
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
