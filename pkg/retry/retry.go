package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// リトライ関連の定数
	DefaultMaxAttempts = 3 // 最大試行回数 (初回を含む)
	DefaultBaseBackoff = 2 // バックオフの底 (秒)
)

// Operation はリトライ可能な処理を表す関数です。
type Operation[T any] func(ctx context.Context) (T, error)

// Policy はリトライ動作を表すポリシーです。
// 待機時間の計算 (Delay) は純粋関数であり、実際のスリープは Do が担います。
type Policy struct {
	MaxAttempts int           // 初回を含む最大試行回数 (1未満は1として扱う)
	BaseBackoff float64       // i回目の失敗後に BaseBackoff^i 秒待機する
	MaxInterval time.Duration // 0 の場合は上限なし
}

// DefaultPolicy は推奨されるデフォルト設定を返します。
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
	}
}

// Attempts は実際に行われる最大試行回数を返します。
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay は attempt 回目 (0始まり) の失敗後に待機する時間を返します。
// BaseBackoff=2 の場合、1s, 2s, 4s ... となります。0^0 は 1 です。
func (p Policy) Delay(attempt int) time.Duration {
	base := p.BaseBackoff
	if base < 0 {
		base = 0
	}
	secs := math.Pow(base, float64(attempt))
	d := maxDuration
	if f := secs * float64(time.Second); f < float64(maxDuration) {
		d = time.Duration(f)
	}
	if p.MaxInterval > 0 && d > p.MaxInterval {
		return p.MaxInterval
	}
	return d
}

const maxDuration = time.Duration(math.MaxInt64)

// BackOff は Policy を backoff.BackOff として扱うためのアダプターを返します。
func (p Policy) BackOff() backoff.BackOff {
	return &policyBackOff{policy: p}
}

// policyBackOff は試行回数のみを状態として持ちます。
type policyBackOff struct {
	policy  Policy
	attempt int
}

func (b *policyBackOff) Reset() { b.attempt = 0 }

func (b *policyBackOff) NextBackOff() time.Duration {
	if b.attempt >= b.policy.Attempts()-1 {
		return backoff.Stop
	}
	d := b.policy.Delay(b.attempt)
	b.attempt++
	return d
}

// ----------------------------------------------------------------------
// 実行
// ----------------------------------------------------------------------

type options struct {
	timer  backoff.Timer
	notify backoff.Notify
}

// Option は Do の動作を調整します。
type Option func(*options)

// WithTimer は待機に使用するタイマーを差し替えます (テストで実時間の待機を避けるため)。
func WithTimer(t backoff.Timer) Option {
	return func(o *options) { o.timer = t }
}

// WithNotify は、リトライ前の待機ごとに呼ばれる関数を設定します。
func WithNotify(fn func(err error, delay time.Duration)) Option {
	return func(o *options) { o.notify = fn }
}

// Permanent は、リトライせずに即時終了すべきエラーとしてラップします。
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do はポリシーに従って op をリトライします。
// 試行回数を使い切った場合は、最後のエラーをラップせずにそのまま返します。
// Permanent でラップされたエラーは即時に返され、ラップは外されます。
func Do[T any](ctx context.Context, p Policy, op Operation[T], opts ...Option) (T, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	bo := backoff.WithContext(p.BackOff(), ctx)

	return backoff.RetryNotifyWithTimerAndData(func() (T, error) {
		return op(ctx)
	}, bo, o.notify, o.timer)
}
