package compare

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-web-diff/pkg/diff"
	"github.com/shouni/go-web-diff/pkg/types"
)

const (
	// DefaultMaxConcurrency は、並列比較のデフォルトの最大同時実行数を定義します。
	DefaultMaxConcurrency = 6
	// MaxConcurrency は、対象サーバーのレート制限を避けるための同時実行数の上限です。
	MaxConcurrency = 16
)

// Fetcher はURLから表示テキストを取得する機能のインターフェースです。
type Fetcher interface {
	Fetch(ctx context.Context, url string) types.FetchOutcome
}

// Differ は2つのテキストを比較する機能のインターフェースです。
type Differ interface {
	Diff(oldText, newText string) types.DiffResult
}

// Observer は、各ペアの処理完了を通知される外部の観察者です (進捗表示など)。
// 呼び出しは直列化されます。
type Observer interface {
	PairDone(done, total int, result types.PairResult)
}

// ObserverFunc は関数を Observer として扱うためのアダプターです。
type ObserverFunc func(done, total int, result types.PairResult)

func (f ObserverFunc) PairDone(done, total int, result types.PairResult) { f(done, total, result) }

// Comparator はURLペアの取得と比較を並列に実行します。
type Comparator struct {
	fetcher        Fetcher
	differ         Differ
	maxConcurrency int
	observer       Observer
	logger         *zap.Logger
}

// Option は Comparator の設定を行うための関数型です。
type Option func(*Comparator)

// WithDiffer は Differ を差し替えます。
func WithDiffer(d Differ) Option {
	return func(c *Comparator) { c.differ = d }
}

// WithConcurrency は最大同時実行数を設定します。1〜MaxConcurrency に丸められます。
func WithConcurrency(n int) Option {
	return func(c *Comparator) { c.maxConcurrency = n }
}

// WithObserver は進捗の通知先を設定します。
func WithObserver(o Observer) Option {
	return func(c *Comparator) { c.observer = o }
}

// WithLogger はロガーを設定します。
func WithLogger(logger *zap.Logger) Option {
	return func(c *Comparator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New は Comparator を初期化します。
func New(fetcher Fetcher, opts ...Option) (*Comparator, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("compare.New: Fetcher cannot be nil")
	}
	c := &Comparator{
		fetcher:        fetcher,
		differ:         diff.New(diff.DefaultWordLimit),
		maxConcurrency: DefaultMaxConcurrency,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.maxConcurrency = clampConcurrency(c.maxConcurrency)
	return c, nil
}

func clampConcurrency(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxConcurrency
	case n > MaxConcurrency:
		return MaxConcurrency
	default:
		return n
	}
}

// Concurrency は実際に使用される最大同時実行数を返します。
func (c *Comparator) Concurrency() int {
	return c.maxConcurrency
}

// ComparePair は新旧URLを取得し、両方成功した場合のみ差分を計算します。
func (c *Comparator) ComparePair(ctx context.Context, pair types.URLPair) types.PairResult {
	result := types.PairResult{
		Pair: pair,
		Old:  c.fetcher.Fetch(ctx, pair.OldURL),
		New:  c.fetcher.Fetch(ctx, pair.NewURL),
	}

	if !result.Old.OK() || !result.New.OK() {
		c.logger.Debug("取得に失敗したため差分計算をスキップします",
			zap.Int("row", pair.Index),
			zap.String("old_status", result.Old.Status().String()),
			zap.String("new_status", result.New.Status().String()),
		)
		return result
	}

	d := c.differ.Diff(result.Old.Text(), result.New.Text())
	result.Diff = &d
	return result
}

// CompareAll はすべてのペアを並列に処理し、入力と同じ順序で結果を返します。
// ctx が中断された場合でも結果は全件返し、未処理の行は中断理由を持つ失敗結果になります。
func (c *Comparator) CompareAll(ctx context.Context, pairs []types.URLPair) ([]types.PairResult, error) {
	results := make([]types.PairResult, len(pairs))
	total := len(pairs)

	var (
		mu   sync.Mutex
		done int
	)
	notify := func(r types.PairResult) {
		if c.observer == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		c.observer.PairDone(done, total, r)
	}

	c.logger.Info("比較を開始します", zap.Int("pairs", total), zap.Int("concurrency", c.maxConcurrency))

	g := new(errgroup.Group)
	g.SetLimit(c.maxConcurrency)

	for i, pair := range pairs {
		if ctx.Err() != nil {
			results[i] = aborted(pair, ctx.Err())
			continue
		}

		g.Go(func() error {
			res := c.ComparePair(ctx, pair)
			results[i] = res
			notify(res)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		c.logger.Warn("比較が中断されました", zap.Error(err))
		return results, err
	}

	c.logger.Info("比較が完了しました", zap.Int("pairs", total))
	return results, nil
}

func aborted(pair types.URLPair, err error) types.PairResult {
	return types.PairResult{
		Pair: pair,
		Old:  types.Failed(err.Error()),
		New:  types.Failed(err.Error()),
	}
}
