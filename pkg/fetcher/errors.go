package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNonHTML は、2xx 応答の Content-Type が text/html を含まない場合のエラーです。
// 結果が決定的なためリトライ対象外です。
var ErrNonHTML = errors.New(NonHTMLReason)

// NonHTMLReason は、HTML 以外の応答に対する失敗理由です。
const NonHTMLReason = "Non-HTML content"

// HTTPStatusError は 2xx 以外のステータスコードを示すエラーです。
// 4xx / 5xx を問わずリトライ対象になります。
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	kind := "Client Error"
	if e.StatusCode >= 500 {
		kind = "Server Error"
	} else if e.StatusCode < 400 {
		kind = "Unexpected Status"
	}
	return fmt.Sprintf("%d %s: %s for url: %s", e.StatusCode, kind, http.StatusText(e.StatusCode), e.URL)
}

// IsHTTPStatusError は与えられたエラーが HTTPStatusError であるかを判断します。
func IsHTTPStatusError(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr)
}
