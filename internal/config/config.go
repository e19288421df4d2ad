package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SchemeSequential = "sequential"
	SchemeUUID       = "uuid"
)

// Config represents the top-level teller.yaml configuration.
type Config struct {
	Bank     BankConfig     `yaml:"bank"`
	Security SecurityConfig `yaml:"security"`
	IDs      IDConfig       `yaml:"ids"`
	History  HistoryConfig  `yaml:"history"`
	Backup   BackupConfig   `yaml:"backup"`
	Server   ServerConfig   `yaml:"server"`
	Git      GitConfig      `yaml:"git"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BankConfig names the institution on statements and reports.
type BankConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"` // symbol printed before amounts
}

// SecurityConfig tunes the lockout guard.
type SecurityConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	LockoutDuration   time.Duration `yaml:"lockout_duration"`
	MinPasswordLength int           `yaml:"min_password_length"`
}

// IDConfig selects how account and customer ids are generated.
type IDConfig struct {
	Scheme         string `yaml:"scheme"` // "sequential" or "uuid"
	AccountPrefix  string `yaml:"account_prefix"`
	CustomerPrefix string `yaml:"customer_prefix"`
}

// HistoryConfig is informational; the ledger always keeps 10 entries.
type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

// BackupConfig controls data directory backups.
type BackupConfig struct {
	Keep int `yaml:"keep"`
}

// ServerConfig configures `teller serve`.
type ServerConfig struct {
	Addr      string        `yaml:"addr"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LoggingConfig sets the default log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a teller.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects settings the rest of the program cannot honor.
func (c *Config) Validate() error {
	switch c.IDs.Scheme {
	case "", SchemeSequential, SchemeUUID:
	default:
		return fmt.Errorf("invalid config: ids.scheme %q (want %s or %s)", c.IDs.Scheme, SchemeSequential, SchemeUUID)
	}
	if c.Security.MaxAttempts < 0 {
		return fmt.Errorf("invalid config: security.max_attempts must not be negative")
	}
	if c.Security.LockoutDuration < 0 {
		return fmt.Errorf("invalid config: security.lockout_duration must not be negative")
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("invalid config: backup.keep must not be negative")
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(bankName string) *Config {
	return &Config{
		Bank: BankConfig{
			Name:     bankName,
			Currency: "$",
		},
		Security: SecurityConfig{
			MaxAttempts:       3,
			LockoutDuration:   5 * time.Minute,
			MinPasswordLength: 6,
		},
		IDs: IDConfig{
			Scheme:         SchemeSequential,
			AccountPrefix:  "ACC",
			CustomerPrefix: "CUST",
		},
		History: HistoryConfig{
			Limit: 10,
		},
		Backup: BackupConfig{
			Keep: 5,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			TokenTTL: 15 * time.Minute,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Teller",
			AuthorEmail: "teller@localhost",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
