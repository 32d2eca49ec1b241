package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"fintrack/models"
	"fintrack/pkg/categorize"
	"fintrack/pkg/config"
	"fintrack/pkg/importer"
	"fintrack/pkg/ledger"
	"fintrack/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	flagConfig string
	flagUser   string
	flagDryRun bool
	flagQuiet  bool
)

var rootCmd = &cobra.Command{
	Use:           "fintrackctl",
	Short:         "fintrack operator CLI",
	Long:          "Manage users, import statements, and print reports and forecasts against the fintrack database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default $FINTRACK_CONFIG or fintrack.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "admin", "Username to act as")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Use an in-memory ledger instead of the database")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
}

func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		if err := os.Setenv("FINTRACK_CONFIG", flagConfig); err != nil {
			return config.Config{}, err
		}
	}
	return config.Load()
}

// session is what a command needs: the config, a logger carried in ctx and a
// ledger with the services built over it.
type session struct {
	cfg      config.Config
	ctx      context.Context
	gdb      *gorm.DB // nil in dry-run mode
	store    ledger.Store
	learner  *categorize.Learner
	importer *importer.Importer
	userID   uint
}

func newLogger(cfg config.Config) zerolog.Logger {
	level := cfg.Server.LogLevel
	if flagQuiet {
		level = "warn"
	}
	return logger.NewWithWriter(os.Stderr, level)
}

// openSession connects to the database (unless --dry-run) and resolves --user.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, ctx: logger.WithContext(ctx, newLogger(cfg))}
	if flagDryRun {
		s.store = ledger.NewMemoryStore()
		s.userID = 1
	} else {
		gdb, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		s.gdb = gdb
		s.store = ledger.NewGormStore(gdb)
		if s.userID, err = resolveUser(gdb, flagUser); err != nil {
			return nil, err
		}
	}
	s.learner = categorize.NewLearner(s.store)
	s.importer = importer.New(s.store, s.learner)
	return s, nil
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	dsn, err := cfg.RequireDSN()
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return gdb, nil
}

func resolveUser(gdb *gorm.DB, username string) (uint, error) {
	var u models.User
	if err := gdb.Select("id").Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("user %q not found", username)
		}
		return 0, err
	}
	return u.ID, nil
}
