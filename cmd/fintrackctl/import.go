package main

import (
	"github.com/spf13/cobra"
)

var flagAccountID uint

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import CSV, OFX or QFX statements",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().UintVar(&flagAccountID, "account-id", 0, "Account whose balance absorbs the imported net amount")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	var accountID *uint
	if flagAccountID != 0 {
		accountID = &flagAccountID
	}
	for _, path := range args {
		if _, err := importPath(s, path, accountID); err != nil {
			return err
		}
	}
	return nil
}
