package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Bank")
	cfg.IDs.Scheme = SchemeUUID
	cfg.Server.JWTSecret = "s3cret"
	cfg.Security.LockoutDuration = 90 * time.Second

	path := filepath.Join(t.TempDir(), "teller.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Bank")

	assert.Equal(t, "My Bank", cfg.Bank.Name)
	assert.Equal(t, "$", cfg.Bank.Currency)
	assert.Equal(t, 3, cfg.Security.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Security.LockoutDuration)
	assert.Equal(t, 6, cfg.Security.MinPasswordLength)
	assert.Equal(t, SchemeSequential, cfg.IDs.Scheme)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, 5, cfg.Backup.Keep)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.JWTSecret)
	assert.True(t, cfg.Git.AutoCommit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad scheme", "ids:\n  scheme: random\n"},
		{"negative attempts", "security:\n  max_attempts: -1\n"},
		{"negative keep", "backup:\n  keep: -2\n"},
		{"not yaml", "bank: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "teller.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Bank")
	path := filepath.Join(t.TempDir(), "teller.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Bank")
	assert.Contains(t, contents, "max_attempts: 3")
	assert.Contains(t, contents, "lockout_duration: 5m0s")
	assert.Contains(t, contents, "scheme: sequential")
	assert.Contains(t, contents, "auto_commit: true")
}
