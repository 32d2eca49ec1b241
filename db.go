package main

import (
	"errors"
	"os"

	"fintrack/models"
	"fintrack/pkg/ledger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() error {
	dsn, err := cfg.RequireDSN()
	if err != nil {
		return err
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	// Roles first so the users FK can be applied.
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Warn().Err(err).Str("table", "roles").Msg("migration warning")
		}
	}
	seedRoles()

	if cfg.Database.AutoMigrate {
		// one at a time so a failure on one table doesn't block the rest
		tables := []struct {
			name  string
			model any
		}{
			{"users", &models.User{}},
			{"refresh_tokens", &models.RefreshToken{}},
			{"incomes", &models.Income{}},
			{"expenses", &models.Expense{}},
			{"budgets", &models.Budget{}},
			{"monthly_incomes", &models.MonthlyIncome{}},
			{"categories", &models.Category{}},
			{"category_mappings", &models.CategoryMapping{}},
			{"goals", &models.Goal{}},
			{"accounts", &models.Account{}},
			{"receipts", &models.Receipt{}},
		}
		for _, t := range tables {
			if err := db.AutoMigrate(t.model); err != nil {
				log.Warn().Err(err).Str("table", t.name).Msg("migration warning")
			}
		}
	}
	seedDB()
	return nil
}

func newGormStore() ledger.Store {
	return ledger.NewGormStore(db)
}

func seedRoles() {
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Error().Err(err).Msg("failed to find administrator role")
		}
		rid := role.ID
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			password = "admin123"
		}
		hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		admin := models.User{Username: "admin", RoleID: &rid, HashedPassword: hashed}
		switch err := db.Create(&admin).Error; {
		case err == nil:
			log.Info().Str("username", "admin").Msg("seeded admin user")
		case !ledger.IsUniqueViolation(err):
			log.Error().Err(err).Msg("failed to seed admin")
		}
	}
	ensureUploadBase()
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	if err := os.MkdirAll(cfg.Uploads.Base, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		log.Error().Err(err).Str("dir", cfg.Uploads.Base).Msg("failed to create upload base dir")
	}
}
