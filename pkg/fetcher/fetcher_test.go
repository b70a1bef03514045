package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/shouni/go-web-diff/pkg/retry"
	"github.com/shouni/go-web-diff/pkg/types"
)

// recordingTimer は待機時間を記録し、実時間を待たずに発火します。
type recordingTimer struct {
	mu    sync.Mutex
	waits []time.Duration
	c     chan time.Time
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{c: make(chan time.Time, 1)}
}

func (t *recordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.waits = append(t.waits, d)
	t.mu.Unlock()
	t.c <- time.Now()
}
func (t *recordingTimer) Stop()               {}
func (t *recordingTimer) C() <-chan time.Time { return t.c }

func (t *recordingTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}

// doerFunc は関数を Doer として扱います。
type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func newTestClient(timer *recordingTimer, opts ...Option) *Client {
	opts = append([]Option{WithTimer(func() backoff.Timer { return timer })}, opts...)
	return New(0, opts...)
}

func TestNew(t *testing.T) {
	t.Run("default timeout", func(t *testing.T) {
		c := New(0)
		assert.Equal(t, DefaultHTTPTimeout, c.timeout)
		assert.IsType(t, &httpkit.Client{}, c.httpClient)
		assert.Equal(t, retry.DefaultPolicy(), c.Policy())
	})

	t.Run("options", func(t *testing.T) {
		doer := doerFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("unused") })
		c := New(5*time.Second, WithHTTPClient(doer), WithMaxRetries(5), WithBaseBackoff(3), WithRateLimit(2))
		assert.Equal(t, 5*time.Second, c.timeout)
		assert.Equal(t, 5, c.Policy().MaxAttempts)
		assert.Equal(t, float64(3), c.Policy().BaseBackoff)
		assert.NotNil(t, c.limiter)
	})

	t.Run("zero rate limit disables limiter", func(t *testing.T) {
		c := New(0, WithRateLimit(0))
		assert.Nil(t, c.limiter)
	})
}

func TestFetch_Success(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><script>x()</script></head><body><p>Hello</p><p>world</p></body></html>`))
	}))
	defer srv.Close()

	timer := newRecordingTimer()
	outcome := newTestClient(timer).Fetch(context.Background(), srv.URL)

	require.True(t, outcome.OK(), outcome.Reason())
	assert.Equal(t, "Hello world", outcome.Text())
	assert.Empty(t, outcome.Reason())
	assert.Equal(t, UserAgent, gotUA)
	assert.Empty(t, timer.Waits())
}

func TestFetch_NonHTMLShortCircuit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	timer := newRecordingTimer()
	outcome := newTestClient(timer).Fetch(context.Background(), srv.URL)

	assert.Equal(t, types.StatusFailed, outcome.Status())
	assert.Equal(t, "Non-HTML content", outcome.Reason())
	assert.Empty(t, outcome.Text())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, timer.Waits())
}

func TestFetch_RetryExhaustion(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	timer := newRecordingTimer()
	outcome := newTestClient(timer, WithMaxRetries(3), WithBaseBackoff(2)).Fetch(context.Background(), srv.URL)

	assert.Equal(t, types.StatusFailed, outcome.Status())
	assert.Equal(t, "503 Server Error: Service Unavailable for url: "+srv.URL, outcome.Reason())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, timer.Waits())
}

func TestFetch_TransportErrorUsesFinalMessage(t *testing.T) {
	attempt := 0
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		attempt++
		return nil, errors.New("connection reset " + strings.Repeat("!", attempt))
	})

	timer := newRecordingTimer()
	outcome := newTestClient(timer, WithHTTPClient(doer)).Fetch(context.Background(), "http://example.invalid/")

	assert.False(t, outcome.OK())
	assert.Equal(t, "connection reset !!!", outcome.Reason())
	assert.Equal(t, 3, attempt)
}

func TestFetch_ClientErrorIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>recovered</p>"))
	}))
	defer srv.Close()

	timer := newRecordingTimer()
	outcome := newTestClient(timer).Fetch(context.Background(), srv.URL)

	require.True(t, outcome.OK(), outcome.Reason())
	assert.Equal(t, "recovered", outcome.Text())
	assert.Equal(t, []time.Duration{1 * time.Second}, timer.Waits())
}

func TestFetch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>never</p>"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := newTestClient(newRecordingTimer()).Fetch(ctx, srv.URL)

	assert.False(t, outcome.OK())
	assert.Contains(t, outcome.Reason(), "context canceled")
}

func TestFetch_DecodesCharset(t *testing.T) {
	shiftJIS, err := japanese.ShiftJIS.NewEncoder().String(
		`<html><head><meta charset="Shift_JIS"></head><body><p>こんにちは 世界</p></body></html>`)
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		body        string
		expected    string
	}{
		{
			name:        "latin1 declared in header",
			contentType: "text/html; charset=iso-8859-1",
			body:        "<p>caf\xe9 na\xefve</p>",
			expected:    "café naïve",
		},
		{
			name:        "shift_jis declared in meta",
			contentType: "text/html",
			body:        shiftJIS,
			expected:    "こんにちは 世界",
		},
		{
			name:        "undeclared utf-8 after a long ascii prefix",
			contentType: "text/html",
			body:        strings.Repeat("<p>a</p>", 200) + "<p>日本語</p>",
			expected:    strings.Repeat("a ", 200) + "日本語",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			outcome := newTestClient(newRecordingTimer()).Fetch(context.Background(), srv.URL)

			require.True(t, outcome.OK(), outcome.Reason())
			assert.True(t, utf8.ValidString(outcome.Text()))
			assert.Equal(t, tt.expected, outcome.Text())
		})
	}
}

func TestFetch_RateLimitThrottles(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	// 20 rps、バースト1: 2回目以降は約50msずつ待たされる
	c := newTestClient(newRecordingTimer(), WithRateLimit(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.True(t, c.Fetch(context.Background(), srv.URL).OK())
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_RateLimitRespectsContext(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	t.Run("canceled before wait", func(t *testing.T) {
		atomic.StoreInt32(&calls, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		outcome := newTestClient(newRecordingTimer(), WithRateLimit(0.01)).Fetch(ctx, srv.URL)

		assert.False(t, outcome.OK())
		assert.Contains(t, outcome.Reason(), "context canceled")
		assert.Zero(t, atomic.LoadInt32(&calls))
	})

	t.Run("deadline shorter than next token", func(t *testing.T) {
		atomic.StoreInt32(&calls, 0)
		c := newTestClient(newRecordingTimer(), WithRateLimit(0.01))
		require.True(t, c.Fetch(context.Background(), srv.URL).OK())

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		start := time.Now()
		outcome := c.Fetch(ctx, srv.URL)

		assert.False(t, outcome.OK())
		assert.Contains(t, outcome.Reason(), "would exceed context deadline")
		assert.Less(t, time.Since(start), 200*time.Millisecond)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

// zeroReader は無限にゼロバイトを返します。
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestFetchBytes_BodyTooLarge(t *testing.T) {
	var calls int32
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(io.LimitReader(zeroReader{}, MaxBodySize+1)),
			Request:    req,
		}, nil
	})

	timer := newRecordingTimer()
	_, err := newTestClient(timer, WithHTTPClient(doer)).FetchBytes(context.Background(), "http://big.example/")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "最大サイズ")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, timer.Waits())
}

func TestFetchBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte("<rss></rss>"))
	}))
	defer srv.Close()

	body, err := newTestClient(newRecordingTimer()).FetchBytes(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<rss></rss>", string(body))
}

func TestHTTPStatusError_Error(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{404, "404 Client Error: Not Found for url: http://a/"},
		{500, "500 Server Error: Internal Server Error for url: http://a/"},
		{304, "304 Unexpected Status: Not Modified for url: http://a/"},
	}
	for _, tt := range tests {
		err := &HTTPStatusError{StatusCode: tt.status, URL: "http://a/"}
		assert.Equal(t, tt.expected, err.Error())
		assert.True(t, IsHTTPStatusError(err))
	}
	assert.False(t, IsHTTPStatusError(errors.New("plain")))
}
