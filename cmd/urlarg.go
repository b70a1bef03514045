package cmd

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// hasScheme は "scheme://" で始まる入力にマッチします。
// "localhost:8080" のようなホスト:ポートをスキームと誤認しないよう、"://" まで確認します。
var hasScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// normalizeURLArg は、コマンドラインで受け取ったURLを取得可能な絶対URLに正規化します。
// スキームがない場合は https:// を補完し、http / https 以外のスキームとホストのないURLはエラーにします。
func normalizeURLArg(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("URLが指定されていません")
	}
	if !hasScheme.MatchString(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("無効なURLスキームです。httpまたはhttpsを指定してください: %s", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URLにホストが含まれていません: %s", raw)
	}
	return raw, nil
}
