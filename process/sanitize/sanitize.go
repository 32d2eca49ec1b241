// Package sanitize truncates application tables and reseeds the roles and
// admin account. It backs `fintrackctl sanitize`.
package sanitize

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fintrack/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultTables are the tables owned by fintrack.
var DefaultTables = []string{
	"refresh_tokens", "receipts", "category_mappings", "categories", "budgets",
	"monthly_incomes", "goals", "accounts", "incomes", "expenses", "users", "roles",
}

var nameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SplitTables parses a comma separated list and drops names that are not
// plain identifiers.
func SplitTables(list string) (valid, skipped []string) {
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRE.MatchString(p) {
			skipped = append(skipped, p)
			continue
		}
		valid = append(valid, p)
	}
	return valid, skipped
}

// Existing filters tables down to the ones present in the public schema.
func Existing(ctx context.Context, gdb *gorm.DB, tables []string) ([]string, error) {
	var out []string
	for _, t := range tables {
		var cnt int64
		err := gdb.WithContext(ctx).
			Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).
			Scan(&cnt).Error
		if err != nil {
			return nil, fmt.Errorf("query pg_tables for %s: %w", t, err)
		}
		if cnt > 0 {
			out = append(out, t)
		}
	}
	return out, nil
}

// TruncateStatement quotes the validated identifiers into one TRUNCATE.
func TruncateStatement(tables []string) string {
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, `"`+t+`"`)
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
}

func Truncate(ctx context.Context, gdb *gorm.DB, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	return gdb.WithContext(ctx).Exec(TruncateStatement(tables)).Error
}

// Reseed recreates the administrator and user roles and the admin account.
func Reseed(gdb *gorm.DB, adminPassword string) error {
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		if err := gdb.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("ensure role %s: %w", r.Name, err)
		}
	}
	var role models.Role
	if err := gdb.Where("name = ?", "administrator").First(&role).Error; err != nil {
		return fmt.Errorf("find administrator role: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	rid := role.ID
	admin := models.User{Username: "admin", HashedPassword: hashed, RoleID: &rid}
	if err := gdb.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	return nil
}
