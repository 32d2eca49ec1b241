package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"fintrack/process/sanitize"

	"github.com/spf13/cobra"
)

var (
	flagYes    bool
	flagReseed bool
	flagTables string
	flagApply  bool
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Truncate application tables (destructive)",
	Long: "Lists the tables that would be truncated. Pass --apply --yes to execute,\n" +
		"and --reseed to recreate the roles and admin account afterwards.",
	RunE: runSanitize,
}

func init() {
	sanitizeCmd.Flags().BoolVar(&flagApply, "apply", false, "Actually truncate (default only lists)")
	sanitizeCmd.Flags().BoolVar(&flagYes, "yes", false, "Confirm the destructive action")
	sanitizeCmd.Flags().BoolVar(&flagReseed, "reseed", false, "Recreate roles and the admin user after truncation")
	sanitizeCmd.Flags().StringVar(&flagTables, "tables", strings.Join(sanitize.DefaultTables, ","), "Comma-separated tables to truncate")
	rootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gdb, err := openDB(cfg)
	if err != nil {
		return err
	}
	wanted, skipped := sanitize.SplitTables(flagTables)
	for _, name := range skipped {
		fmt.Fprintf(os.Stderr, "warning: skipping invalid table name %q\n", name)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	tables, err := sanitize.Existing(ctx, gdb, wanted)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Println("no requested tables present in the database; nothing to do")
		return nil
	}
	fmt.Println("Tables considered for truncation:")
	for _, t := range tables {
		fmt.Printf(" - %s\n", t)
	}
	if !flagApply {
		fmt.Println("listing only; pass --apply --yes to execute.")
		return nil
	}
	if !flagYes {
		return fmt.Errorf("destructive operation, pass --yes to confirm")
	}
	fmt.Println("Executing:", sanitize.TruncateStatement(tables))
	if err := sanitize.Truncate(ctx, gdb, tables); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	fmt.Println("Truncate completed.")
	if flagReseed {
		pw := os.Getenv("ADMIN_PASSWORD")
		if pw == "" {
			pw = "admin123"
		}
		if err := sanitize.Reseed(gdb, pw); err != nil {
			return fmt.Errorf("reseed: %w", err)
		}
		fmt.Println("Roles and admin user recreated.")
	}
	return nil
}
