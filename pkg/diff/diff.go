package diff

import (
	"github.com/shouni/go-web-diff/pkg/types"
)

// DefaultWordLimit は、各出力に残す最大語数です。
const DefaultWordLimit = 500

// Differ は新旧テキストを単語単位で比較します。副作用はなく、同時に利用できます。
type Differ struct {
	Limit int // 0 以下の場合は DefaultWordLimit
}

// New は、出力語数の上限を指定して Differ を生成します。
func New(limit int) *Differ {
	return &Differ{Limit: limit}
}

// Diff は2つのテキストを比較します。
// 類似度は切り詰め前の全アラインメントから算出し、各出力は先頭から上限語数までに切り詰めます。
func (d *Differ) Diff(oldText, newText string) types.DiffResult {
	a, b := Tokenize(oldText), Tokenize(newText)
	al := Align(a, b)
	onlyOld, onlyNew, common := Partition(a, b, al.Opcodes)

	limit := d.limit()
	return types.DiffResult{
		OnlyOld: truncate(onlyOld, limit),
		OnlyNew: truncate(onlyNew, limit),
		Common:  truncate(common, limit),
		Ratio:   al.Ratio,
	}
}

func (d *Differ) limit() int {
	if d == nil || d.Limit <= 0 {
		return DefaultWordLimit
	}
	return d.Limit
}

// Compare はデフォルトの上限語数で Diff を実行します。
func Compare(oldText, newText string) types.DiffResult {
	return (&Differ{}).Diff(oldText, newText)
}

func truncate(words []string, limit int) []string {
	if len(words) > limit {
		return words[:limit]
	}
	return words
}
