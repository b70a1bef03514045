package feed

import (
	"net/url"
	"strings"

	"github.com/shouni/go-web-diff/pkg/types"
)

// MatchByPath は、URLパスが一致する新旧リンクを組にして返します。
// パス末尾のスラッシュは無視し、順序は旧リンクの出現順です。
// 同じパスが複数ある場合は、それぞれ最初に出現したリンクのみを使います。
func MatchByPath(oldLinks, newLinks []string) []types.URLPair {
	byPath := make(map[string]string, len(newLinks))
	for _, link := range newLinks {
		key, ok := pathKey(link)
		if !ok {
			continue
		}
		if _, exists := byPath[key]; !exists {
			byPath[key] = link
		}
	}

	seen := make(map[string]struct{}, len(oldLinks))
	var pairs []types.URLPair
	for _, link := range oldLinks {
		key, ok := pathKey(link)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		newLink, found := byPath[key]
		if !found {
			continue
		}
		seen[key] = struct{}{}
		pairs = append(pairs, types.URLPair{Index: len(pairs), OldURL: link, NewURL: newLink})
	}
	return pairs
}

func pathKey(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "", false
	}
	p := strings.TrimRight(u.EscapedPath(), "/")
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p, true
}
