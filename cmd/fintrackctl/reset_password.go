package main

import (
	"fmt"

	"fintrack/models"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username> <password>",
	Short: "Set a new password and revoke the user's refresh tokens",
	Args:  cobra.ExactArgs(2),
	RunE:  runResetPassword,
}

func init() {
	rootCmd.AddCommand(resetPasswordCmd)
}

func runResetPassword(_ *cobra.Command, args []string) error {
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
	id, err := resolveUser(gdb, username)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bcrypt: %w", err)
	}
	if err := gdb.Model(&models.User{}).Where("id = ?", id).Update("hashed_password", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	res := gdb.Model(&models.RefreshToken{}).Where("user_id = ? AND revoked = ?", id, false).Update("revoked", true)
	if res.Error != nil {
		return fmt.Errorf("revoke refresh tokens: %w", res.Error)
	}
	fmt.Printf("password reset for %s, %d refresh tokens revoked\n", username, res.RowsAffected)
	return nil
}
