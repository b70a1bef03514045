package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/shouni/go-web-diff/pkg/extract"
	"github.com/shouni/go-web-diff/pkg/retry"
	"github.com/shouni/go-web-diff/pkg/types"
)

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 10 * time.Second
	MaxBodySize        = httpkit.MaxResponseBodySize // レスポンスボディの最大読み込みサイズ

	// サイトからのブロックを避けるためのUser-Agent
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

	htmlContentType = "text/html"
)

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースです。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client は、リトライとバックオフを伴うページ取得とテキスト抽出を管理します。
// 状態を共有するのはレートリミッターのみのため、複数の goroutine から同時に利用できます。
type Client struct {
	httpClient Doer
	timeout    time.Duration
	policy     retry.Policy
	limiter    *rate.Limiter
	newTimer   func() backoff.Timer
	logger     *zap.Logger
}

// Option はClientの設定を行うための関数型です。
type Option func(*Client)

// WithHTTPClient はカスタムのDoerを設定します。
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// WithMaxRetries は最大試行回数 (初回を含む) を設定します。
func WithMaxRetries(max int) Option {
	return func(c *Client) { c.policy.MaxAttempts = max }
}

// WithBaseBackoff はバックオフの底 (秒) を設定します。
func WithBaseBackoff(seconds float64) Option {
	return func(c *Client) { c.policy.BaseBackoff = seconds }
}

// WithPolicy はリトライポリシー全体を差し替えます。
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithRateLimit は、すべての試行に共通する1秒あたりのリクエスト数の上限を設定します。
// 0 以下の場合は無制限です。
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithTimer は、バックオフ待機に使うタイマーの生成関数を設定します。
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(c *Client) { c.newTimer = newTimer }
}

// WithLogger はロガーを設定します。
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New は、新しいClientを生成します。timeout は1回の試行ごとのタイムアウトです。
func New(timeout time.Duration, options ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		httpClient: httpkit.New(timeout),
		timeout:    timeout,
		policy:     retry.DefaultPolicy(),
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Policy は現在のリトライポリシーを返します。
func (c *Client) Policy() retry.Policy {
	return c.policy
}

// ----------------------------------------------------------------------
// 公開メソッド
// ----------------------------------------------------------------------

// Fetch はURLから HTML を取得し、表示テキストを抽出します。
// 失敗はすべて types.Failed として返され、呼び出し元にエラーや panic が伝播することはありません。
func (c *Client) Fetch(ctx context.Context, rawURL string) types.FetchOutcome {
	text, err := retry.Do(ctx, c.policy, func(ctx context.Context) (string, error) {
		return c.fetchText(ctx, rawURL)
	}, c.retryOptions(rawURL)...)

	if err != nil {
		if errors.Is(err, ErrNonHTML) {
			c.logger.Debug("HTML以外のコンテンツのため中止しました", zap.String("url", rawURL))
			return types.Failed(NonHTMLReason)
		}
		c.logger.Warn("フェッチに失敗しました", zap.String("url", rawURL), zap.Error(err))
		return types.Failed(err.Error())
	}
	return types.Succeeded(text)
}

// FetchBytes はURLからコンテンツを取得し、生のバイト配列として返します。
// Content-Type の検証は行いません。
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) ([]byte, error) {
		var body []byte
		err := c.get(ctx, rawURL, func(resp *http.Response) error {
			var readErr error
			body, readErr = readLimited(resp)
			return readErr
		})
		return body, err
	}, c.retryOptions(rawURL)...)
}

// ----------------------------------------------------------------------
// 内部処理
// ----------------------------------------------------------------------

// fetchText は1回の試行で HTML を取得し、テキストを抽出します。
func (c *Client) fetchText(ctx context.Context, rawURL string) (string, error) {
	var text string
	err := c.get(ctx, rawURL, func(resp *http.Response) error {
		if !strings.Contains(resp.Header.Get("Content-Type"), htmlContentType) {
			return retry.Permanent(ErrNonHTML)
		}

		body, err := readLimited(resp)
		if err != nil {
			return err
		}

		text, err = extract.VisibleText(decodeBody(body, resp.Header.Get("Content-Type")))
		return err
	})
	return text, err
}

// get は1回の GET リクエストを実行し、2xx の場合のみ handle を呼び出します。
func (c *Client) get(ctx context.Context, rawURL string, handle func(*http.Response) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	return handle(resp)
}

func (c *Client) retryOptions(rawURL string) []retry.Option {
	opts := []retry.Option{
		retry.WithNotify(func(err error, delay time.Duration) {
			c.logger.Debug("一時的なエラーが発生、リトライします",
				zap.String("url", rawURL),
				zap.Error(err),
				zap.Duration("backoff", delay),
			)
		}),
	}
	if c.newTimer != nil {
		opts = append(opts, retry.WithTimer(c.newTimer()))
	}
	return opts
}

// readLimited はレスポンスボディを MaxBodySize まで読み込みます。
// 上限を超えた場合は結果が変わらないため、リトライ対象外のエラーとします。
func readLimited(resp *http.Response) ([]byte, error) {
	b, err := httpkit.HandleLimitedResponse(resp, MaxBodySize+1)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > MaxBodySize {
		return nil, retry.Permanent(fmt.Errorf("レスポンスボディが最大サイズ (%dバイト) を超えました", MaxBodySize))
	}
	return b, nil
}

// decodeBody は BOM、Content-Type の charset、meta 宣言の順に文字コードを判定し、UTF-8 に変換するリーダーを返します。
// いずれもない場合、ボディ全体が UTF-8 として妥当であれば UTF-8、そうでなければ windows-1252 とみなします。
func decodeBody(body []byte, contentType string) io.Reader {
	e, _, _ := charset.DetermineEncoding(body, contentType)
	if e == encoding.Nop {
		return bytes.NewReader(body)
	}
	return transform.NewReader(bytes.NewReader(body), e.NewDecoder())
}
