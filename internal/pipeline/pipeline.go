package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shouni/go-web-diff/internal/config"
	"github.com/shouni/go-web-diff/pkg/compare"
	"github.com/shouni/go-web-diff/pkg/diff"
	"github.com/shouni/go-web-diff/pkg/fetcher"
	"github.com/shouni/go-web-diff/pkg/types"
)

// NewFetcher は設定に従って fetcher.Client を初期化します。
func NewFetcher(cfg config.Config, logger *zap.Logger, opts ...fetcher.Option) *fetcher.Client {
	base := []fetcher.Option{
		fetcher.WithMaxRetries(cfg.MaxRetries),
		fetcher.WithBaseBackoff(cfg.BaseBackoff),
		fetcher.WithRateLimit(cfg.RateLimitRPS),
		fetcher.WithLogger(logger),
	}
	return fetcher.New(time.Duration(cfg.TimeoutSec)*time.Second, append(base, opts...)...)
}

// NewComparator は Fetcher と Differ を組み立て、Comparator を返します (依存性の初期化)。
func NewComparator(cfg config.Config, f compare.Fetcher, logger *zap.Logger, opts ...compare.Option) (*compare.Comparator, error) {
	base := []compare.Option{
		compare.WithDiffer(diff.New(cfg.WordLimit)),
		compare.WithConcurrency(cfg.Concurrency),
		compare.WithLogger(logger),
	}
	c, err := compare.New(f, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("Comparatorの初期化エラー: %w", err)
	}
	return c, nil
}

// ComparePair は1組のURLを取得・比較するメインの処理パイプラインです。
func ComparePair(ctx context.Context, cfg config.Config, oldURL, newURL string, logger *zap.Logger) (types.PairResult, error) {
	c, err := NewComparator(cfg, NewFetcher(cfg, logger), logger)
	if err != nil {
		return types.PairResult{}, err
	}
	return c.ComparePair(ctx, types.URLPair{OldURL: oldURL, NewURL: newURL}), nil
}
