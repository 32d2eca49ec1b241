package main

import (
	"fmt"

	"fintrack/models"
	"fintrack/pkg/ledger"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var flagAdmin bool

var createUserCmd = &cobra.Command{
	Use:   "create-user <username> <password>",
	Short: "Create a login",
	Args:  cobra.ExactArgs(2),
	RunE:  runCreateUser,
}

func init() {
	createUserCmd.Flags().BoolVar(&flagAdmin, "admin", false, "Give the user the administrator role")
	rootCmd.AddCommand(createUserCmd)
}

func runCreateUser(_ *cobra.Command, args []string) error {
	username, password := args[0], args[1]
	if len(password) < 6 {
		return fmt.Errorf("password too short (min 6)")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gdb, err := openDB(cfg)
	if err != nil {
		return err
	}

	roleName, desc := "user", "regular user"
	if flagAdmin {
		roleName, desc = "administrator", "full access"
	}
	role := models.Role{Name: roleName, Description: desc}
	if err := gdb.Where("name = ?", roleName).FirstOrCreate(&role).Error; err != nil {
		return fmt.Errorf("ensure role %s: %w", roleName, err)
	}

	var existing models.User
	if err := gdb.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bcrypt: %w", err)
	}
	rid := role.ID
	user := models.User{Username: username, HashedPassword: hashed, RoleID: &rid}
	if err := gdb.Create(&user).Error; err != nil {
		if ledger.IsUniqueViolation(err) {
			fmt.Printf("user %s already exists\n", username)
			return nil
		}
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", username, user.ID, roleName)
	return nil
}
