package models

import "time"

// Category is a user-owned category name.
type Category struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_categories_user_name"`
	Name      string `gorm:"size:100;not null;uniqueIndex:idx_categories_user_name"`
}

// CategoryMapping remembers which category a normalized description was last filed under.
type CategoryMapping struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_category_mappings_user_keyword"`
	Keyword   string `gorm:"size:255;not null;uniqueIndex:idx_category_mappings_user_keyword"`
	Category  string `gorm:"size:100;not null"`
	Count     int    `gorm:"not null;default:1"`
}
