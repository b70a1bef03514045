package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvTimeoutSec, EnvMaxRetries, EnvBaseBackoff, EnvConcurrency,
		EnvRateLimitRPS, EnvWordLimit, EnvOldColumn, EnvNewColumn,
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.TimeoutSec)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, float64(2), cfg.BaseBackoff)
	assert.Equal(t, 6, cfg.Concurrency)
	assert.Equal(t, 500, cfg.WordLimit)
	assert.Equal(t, "Old_URL", cfg.OldColumn)
	assert.Equal(t, "New_URL", cfg.NewColumn)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMaxRetries, "5")
	t.Setenv(EnvBaseBackoff, "1.5")
	t.Setenv(EnvRateLimitRPS, "2")
	t.Setenv(EnvOldColumn, "Source")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 1.5, cfg.BaseBackoff)
	assert.Equal(t, float64(2), cfg.RateLimitRPS)
	assert.Equal(t, "Source", cfg.OldColumn)
	assert.Equal(t, "New_URL", cfg.NewColumn)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvTimeoutSec, "ten"},
		{EnvBaseBackoff, "fast"},
		{EnvMaxRetries, "0"},
		{EnvConcurrency, "-1"},
		{EnvWordLimit, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv は未設定の変数のみを設定するため、テスト後に削除する
	os.Unsetenv(EnvConcurrency)
	t.Cleanup(func() { os.Unsetenv(EnvConcurrency) })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(EnvConcurrency+"=12\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Concurrency)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
