// Package config loads fintrack settings from fintrack.toml, a local .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DevJWTSecret is only accepted when server.mode is "debug".
const DevJWTSecret = "dev-insecure-secret-change"

var (
	ErrMissingDSN       = errors.New("DB_DSN is not set; fintrack requires a Postgres DSN")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required outside debug mode")
	ErrMissingBankKey   = errors.New("bank feed enabled but ENCRYPTION_KEY is not set")
)

// Config holds all fintrack configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Uploads  UploadsConfig  `toml:"uploads"`
	Forecast ForecastConfig `toml:"forecast"`
	Bank     BankConfig     `toml:"bank"`
	Inbox    InboxConfig    `toml:"inbox"`
}

type ServerConfig struct {
	Port     string `toml:"port"`
	Mode     string `toml:"mode"` // gin mode: debug, release, test
	LogLevel string `toml:"log_level"`
	LogJSON  bool   `toml:"log_json"`
}

type DatabaseConfig struct {
	DSN         string `toml:"dsn,omitempty"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret  string        `toml:"jwt_secret,omitempty"`
	AccessTTL  time.Duration `toml:"access_ttl"`
	RefreshTTL time.Duration `toml:"refresh_ttl"`
}

type UploadsConfig struct {
	Base string `toml:"base"`
}

// ForecastConfig picks where the current balance comes from: "ledger" or "accounts".
type ForecastConfig struct {
	BalanceSource string `toml:"balance_source"`
}

// BankConfig configures the SimpleFIN feed. EncryptionKey is base64 of 32 bytes.
type BankConfig struct {
	Enabled       bool          `toml:"enabled"`
	EncryptionKey string        `toml:"encryption_key,omitempty"`
	AccessURL     string        `toml:"access_url,omitempty"`
	Timeout       time.Duration `toml:"timeout"`
}

// InboxConfig drives `fintrackctl watch`.
type InboxConfig struct {
	Dir      string        `toml:"dir"`
	UserID   uint          `toml:"user_id"`
	Workers  int           `toml:"workers"`
	Debounce time.Duration `toml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server:   ServerConfig{Port: "8081", Mode: "debug", LogLevel: "info"},
		Database: DatabaseConfig{AutoMigrate: true},
		Auth:     AuthConfig{AccessTTL: 15 * time.Minute, RefreshTTL: 30 * 24 * time.Hour},
		Uploads:  UploadsConfig{Base: "uploads"},
		Forecast: ForecastConfig{BalanceSource: "ledger"},
		Bank:     BankConfig{Timeout: 30 * time.Second},
		Inbox:    InboxConfig{Dir: "inbox", Workers: 2, Debounce: 3 * time.Second},
	}
}

// Path returns the config file location: FINTRACK_CONFIG or ./fintrack.toml.
func Path() string {
	if p := os.Getenv("FINTRACK_CONFIG"); p != "" {
		return p
	}
	return "fintrack.toml"
}

// Load reads the config file (missing is fine), applies .env and environment
// overrides and validates required secrets.
func Load() (Config, error) {
	LoadDotEnv(".env")
	cfg, err := LoadFile(Path())
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, cfg.Validate()
}

// LoadFile decodes path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the environment variables the service has always read.
func ApplyEnv(cfg *Config) {
	setString(&cfg.Database.DSN, "DB_DSN")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Bank.EncryptionKey, "ENCRYPTION_KEY")
	setString(&cfg.Bank.AccessURL, "SIMPLEFIN_TOKEN")
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Mode, "GIN_MODE")
	setString(&cfg.Server.LogLevel, "LOG_LEVEL")
	setString(&cfg.Uploads.Base, "UPLOAD_BASE")
	if v, ok := os.LookupEnv("DB_AUTO_MIGRATE"); ok && v != "" {
		switch strings.ToLower(v) {
		case "false", "0", "no":
			cfg.Database.AutoMigrate = false
		default:
			cfg.Database.AutoMigrate = true
		}
	}
	if v := os.Getenv("BANK_FEED_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Bank.Enabled = b
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks required secrets. The database DSN is checked by callers
// that open a database.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Server.Mode != "debug" {
			return ErrMissingJWTSecret
		}
		c.Auth.JWTSecret = DevJWTSecret
	}
	if c.Bank.Enabled && c.Bank.EncryptionKey == "" {
		return ErrMissingBankKey
	}
	return nil
}

// RequireDSN returns the DSN or ErrMissingDSN.
func (c Config) RequireDSN() (string, error) {
	if c.Database.DSN == "" {
		return "", ErrMissingDSN
	}
	return c.Database.DSN, nil
}

// LoadDotEnv loads key=value pairs from path into the environment without
// overwriting variables that are already set. Lines starting with # are ignored.
func LoadDotEnv(path string) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.Trim(strings.TrimSpace(line[eq+1:]), `"'`)
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
