package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/shouni/go-web-diff/pkg/compare"
	"github.com/shouni/go-web-diff/pkg/diff"
	"github.com/shouni/go-web-diff/pkg/retry"
	"github.com/shouni/go-web-diff/pkg/table"
)

// 環境変数名
const (
	EnvTimeoutSec   = "WEB_DIFF_TIMEOUT"
	EnvMaxRetries   = "WEB_DIFF_MAX_RETRIES"
	EnvBaseBackoff  = "WEB_DIFF_BACKOFF"
	EnvConcurrency  = "WEB_DIFF_CONCURRENCY"
	EnvRateLimitRPS = "WEB_DIFF_RATE_LIMIT"
	EnvWordLimit    = "WEB_DIFF_WORD_LIMIT"
	EnvOldColumn    = "WEB_DIFF_OLD_COLUMN"
	EnvNewColumn    = "WEB_DIFF_NEW_COLUMN"

	defaultTimeoutSec = 10 // 秒
)

// Config は CLI フラグのデフォルト値となる設定です。
type Config struct {
	TimeoutSec   int
	MaxRetries   int
	BaseBackoff  float64
	Concurrency  int
	RateLimitRPS float64
	WordLimit    int
	OldColumn    string
	NewColumn    string
}

// Default は組み込みのデフォルト設定を返します。
func Default() Config {
	return Config{
		TimeoutSec:  defaultTimeoutSec,
		MaxRetries:  retry.DefaultMaxAttempts,
		BaseBackoff: retry.DefaultBaseBackoff,
		Concurrency: compare.DefaultMaxConcurrency,
		WordLimit:   diff.DefaultWordLimit,
		OldColumn:   table.DefaultOldColumn,
		NewColumn:   table.DefaultNewColumn,
	}
}

// Load はカレントディレクトリの .env (存在する場合) と環境変数から設定を読み込みます。
// 既に設定されている環境変数は .env で上書きされません。
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%s の読み込みに失敗しました: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv は環境変数のみから設定を読み込みます。
func FromEnv() (Config, error) {
	cfg := Default()

	var err error
	if cfg.TimeoutSec, err = envInt(EnvTimeoutSec, cfg.TimeoutSec); err != nil {
		return Config{}, err
	}
	if cfg.MaxRetries, err = envInt(EnvMaxRetries, cfg.MaxRetries); err != nil {
		return Config{}, err
	}
	if cfg.BaseBackoff, err = envFloat(EnvBaseBackoff, cfg.BaseBackoff); err != nil {
		return Config{}, err
	}
	if cfg.Concurrency, err = envInt(EnvConcurrency, cfg.Concurrency); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = envFloat(EnvRateLimitRPS, cfg.RateLimitRPS); err != nil {
		return Config{}, err
	}
	if cfg.WordLimit, err = envInt(EnvWordLimit, cfg.WordLimit); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(EnvOldColumn); v != "" {
		cfg.OldColumn = v
	}
	if v := os.Getenv(EnvNewColumn); v != "" {
		cfg.NewColumn = v
	}

	return cfg, cfg.Validate()
}

// Validate は設定値の範囲を検証します。
func (c Config) Validate() error {
	switch {
	case c.TimeoutSec < 0:
		return fmt.Errorf("タイムアウトは0以上である必要があります: %d", c.TimeoutSec)
	case c.MaxRetries < 1:
		return fmt.Errorf("最大試行回数は1以上である必要があります: %d", c.MaxRetries)
	case c.BaseBackoff < 0:
		return fmt.Errorf("バックオフの底は0以上である必要があります: %g", c.BaseBackoff)
	case c.Concurrency < 1:
		return fmt.Errorf("同時実行数は1以上である必要があります: %d", c.Concurrency)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("レート制限は0以上である必要があります: %g", c.RateLimitRPS)
	case c.WordLimit < 1:
		return fmt.Errorf("出力語数の上限は1以上である必要があります: %d", c.WordLimit)
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("環境変数 %s の値が整数ではありません: %q", key, v)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("環境変数 %s の値が数値ではありません: %q", key, v)
	}
	return f, nil
}
