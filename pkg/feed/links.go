package feed

import (
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

// ItemLinks は、フィードの各記事のリンクを出現順に返します。
// 記事の link が空なら links の先頭の有効な値を使い、相対URLはフィードのサイトURLを基準に解決します。
// 同じURLは一度だけ含まれます。
func ItemLinks(f *gofeed.Feed) []string {
	if f == nil {
		return []string{}
	}

	base := feedBase(f)
	seen := make(map[string]struct{}, len(f.Items))
	links := make([]string, 0, len(f.Items))
	for _, item := range f.Items {
		link, ok := resolve(base, itemLink(item))
		if !ok {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

func itemLink(item *gofeed.Item) string {
	if item == nil {
		return ""
	}
	if l := strings.TrimSpace(item.Link); l != "" {
		return l
	}
	for _, l := range item.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

// feedBase は、相対リンク解決の基準となる絶対URLを返します。サイトURL、フィードURLの順に探します。
func feedBase(f *gofeed.Feed) *url.URL {
	for _, candidate := range []string{f.Link, f.FeedLink} {
		u, err := url.Parse(strings.TrimSpace(candidate))
		if err == nil && u.IsAbs() && u.Host != "" {
			return u
		}
	}
	return nil
}

func resolve(base *url.URL, link string) (string, bool) {
	if link == "" {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		if base == nil {
			return "", false
		}
		u = base.ResolveReference(u)
	}
	return u.String(), true
}
