package main

import (
	"fmt"
	"net/http"

	"fintrack/models"
	"fintrack/pkg/bankfeed"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the last 30 days from the linked SimpleFIN bridge",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

// runSync uses the user's sealed token when one is stored, else bank.access_url.
func runSync(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	accessURL := s.cfg.Bank.AccessURL
	if s.gdb != nil {
		var u models.User
		if err := s.gdb.Select("id", "bank_token").First(&u, s.userID).Error; err != nil {
			return err
		}
		if len(u.BankToken) > 0 {
			sealer, err := bankfeed.NewSealer(s.cfg.Bank.EncryptionKey)
			if err != nil {
				return err
			}
			if accessURL, err = sealer.Open(u.BankToken); err != nil {
				return fmt.Errorf("open bank token: %w", err)
			}
		}
	}
	if accessURL == "" {
		return fmt.Errorf("no SimpleFIN connection for %s and bank.access_url is empty", flagUser)
	}
	client := bankfeed.NewClient(&http.Client{Timeout: s.cfg.Bank.Timeout})
	res, err := bankfeed.NewSyncer(client, s.importer).Sync(s.ctx, s.userID, accessURL)
	if err != nil {
		return err
	}
	fmt.Printf("accounts=%d new=%d duplicates=%d\n", len(res.Accounts), res.NewTransactions, res.Duplicates)
	for _, e := range res.Errors {
		fmt.Println("bridge:", e)
	}
	return nil
}
