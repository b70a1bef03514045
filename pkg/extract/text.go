package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// invisibleSelectors は、表示テキストに含めない要素です。
	invisibleSelectors = "script, style"

	textSeparator = " "
)

// VisibleText は HTML を解析し、script / style を除去した上で
// すべてのテキストノードを文書順に半角スペースで連結し、前後の空白を除去して返します。
// スクリプト無効として解析するため、noscript 内は要素として扱われ、そのテキストのみが残ります。
func VisibleText(r io.Reader) (string, error) {
	root, err := html.ParseWithOptions(r, html.ParseOptionEnableScripting(false))
	if err != nil {
		return "", fmt.Errorf("HTML解析に失敗しました: %w", err)
	}
	return DocumentText(goquery.NewDocumentFromNode(root)), nil
}

// DocumentText は解析済みドキュメントから表示テキストを抽出します。
// ドキュメントから script / style 要素を取り除くため、呼び出し元のドキュメントは変更されます。
func DocumentText(doc *goquery.Document) string {
	doc.Find(invisibleSelectors).Remove()

	var parts []string
	for _, n := range doc.Nodes {
		parts = collectText(n, parts)
	}
	return strings.TrimSpace(strings.Join(parts, textSeparator))
}

// collectText は深さ優先でテキストノードを収集します。コメントや DOCTYPE は対象外です。
func collectText(n *html.Node, parts []string) []string {
	if n.Type == html.TextNode {
		return append(parts, n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = collectText(c, parts)
	}
	return parts
}
