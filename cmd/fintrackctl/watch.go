package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/pkg/receipt"
	"fintrack/process/inbox"

	"github.com/spf13/cobra"
)

var (
	flagDir      string
	flagWorkers  int
	flagDebounce time.Duration
	flagOnce     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Import statements and receipts dropped into the inbox directory",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagDir, "dir", "", "Inbox directory (default inbox.dir from config)")
	watchCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Worker pool size (default inbox.workers)")
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 0, "Quiet period before a new file is picked up")
	watchCmd.Flags().BoolVar(&flagOnce, "once", false, "Process the current files and exit")
	watchCmd.Flags().UintVar(&flagAccountID, "account-id", 0, "Account whose balance absorbs imported statements")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	dir := firstNonEmpty(flagDir, s.cfg.Inbox.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	workers := flagWorkers
	if workers <= 0 {
		workers = s.cfg.Inbox.Workers
	}
	debounce := flagDebounce
	if debounce <= 0 {
		debounce = s.cfg.Inbox.Debounce
	}
	d := &inbox.Dispatcher{
		UserID:   s.userID,
		Importer: s.importer,
		Store:    s.store,
		Cat:      s.learner,
		Scan:     receipt.ExtractTotal,
	}
	if f := cmd.Flag("user"); f != nil && !f.Changed && s.cfg.Inbox.UserID != 0 {
		d.UserID = s.cfg.Inbox.UserID
	}
	if flagAccountID != 0 {
		d.AccountID = &flagAccountID
	}
	in := inbox.New(dir, d.Handle, workers, debounce)

	if flagOnce {
		stats := in.RunOnce(s.ctx)
		fmt.Printf("processed=%d failed=%d\n", stats.Processed, stats.Failed)
		return nil
	}
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	stats, err := in.Watch(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nprocessed=%d failed=%d\n", stats.Processed, stats.Failed)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
