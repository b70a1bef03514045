package types

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------
// フェッチ結果
// ----------------------------------------------------------------------

// Status は、1つのURLに対するフェッチ処理の最終状態を表します。
type Status int

const (
	statusNone Status = iota // ゼロ値。外部には StatusFailed として見える
	StatusSuccess
	StatusFailed
)

// NotFetchedReason は、Succeeded / Failed を経ずに作られたゼロ値の FetchOutcome が返す失敗理由です。
const NotFetchedReason = "Not fetched"

// String は、結果シートに書き出すステータス文字列を返します。
func (s Status) String() string {
	if s == StatusSuccess {
		return "Success"
	}
	return "Failed"
}

// FetchOutcome は、リトライを含む1回のフェッチ処理が生成する結果です。
// 成功時はテキストのみ、失敗時は理由のみを保持します。
// 有効な値は Succeeded / Failed でのみ生成されます。
// ゼロ値は NotFetchedReason を理由とする失敗として扱われます。
type FetchOutcome struct {
	status Status
	text   string
	reason string
}

// Succeeded は、抽出済みテキストを保持する成功結果を生成します。
func Succeeded(text string) FetchOutcome {
	return FetchOutcome{status: StatusSuccess, text: text}
}

// Failed は、失敗理由を保持する失敗結果を生成します。
func Failed(reason string) FetchOutcome {
	return FetchOutcome{status: StatusFailed, reason: reason}
}

func (o FetchOutcome) OK() bool     { return o.status == StatusSuccess }
func (o FetchOutcome) Text() string { return o.text }

// Status は StatusSuccess か StatusFailed のいずれかを返します。
func (o FetchOutcome) Status() Status {
	if o.status == statusNone {
		return StatusFailed
	}
	return o.status
}

// Reason は失敗理由を返します。成功時は空文字です。
func (o FetchOutcome) Reason() string {
	if o.status == statusNone {
		return NotFetchedReason
	}
	return o.reason
}

// ----------------------------------------------------------------------
// 差分結果
// ----------------------------------------------------------------------

// DiffResult は、新旧テキストの単語単位の比較結果です。
// 各スライスは上限語数で切り詰め済みですが、Ratio は切り詰め前の全体から算出されます。
type DiffResult struct {
	OnlyOld []string
	OnlyNew []string
	Common  []string
	Ratio   float64
}

// Similarity は Ratio をパーセント表記 (例: "100.00%") で返します。
func (r DiffResult) Similarity() string {
	return fmt.Sprintf("%.2f%%", r.Ratio*100)
}

func (r DiffResult) OnlyOldText() string { return strings.Join(r.OnlyOld, " ") }
func (r DiffResult) OnlyNewText() string { return strings.Join(r.OnlyNew, " ") }
func (r DiffResult) CommonText() string  { return strings.Join(r.Common, " ") }

// ----------------------------------------------------------------------
// ペアと行結果
// ----------------------------------------------------------------------

const (
	// NoError は、エラーがない場合にエラー列へ書き出す値です。
	NoError = "None"
	// FetchErrorText は、どちらかのフェッチが失敗した場合にテキスト列へ書き出す値です。
	FetchErrorText = "Error fetching content"
	// NotAvailable は、差分を計算できなかった場合の類似度の値です。
	NotAvailable = "N/A"
)

// ResultHeaders は、入力シートの末尾に追加される結果列の見出しです。
var ResultHeaders = []string{
	"Old URL Status",
	"Old URL Error",
	"New URL Status",
	"New URL Error",
	"Only in Old",
	"Only in New",
	"Common Content",
	"Similarity",
}

// URLPair は、入力シートの1行に対応する新旧URLの組です。
type URLPair struct {
	Index  int // 入力シート上のデータ行の位置 (0始まり)
	OldURL string
	NewURL string
}

// PairResult は、1つのURLペアに対する処理結果です。
// Diff は両方のフェッチが成功した場合のみ非nilになります。
type PairResult struct {
	Pair URLPair
	Old  FetchOutcome
	New  FetchOutcome
	Diff *DiffResult
}

// Compared は、差分計算まで到達したかどうかを返します。
func (r PairResult) Compared() bool {
	return r.Diff != nil
}

// Columns は ResultHeaders と同じ順序でセル値を返します。
func (r PairResult) Columns() []string {
	cols := []string{
		r.Old.Status().String(),
		errorCell(r.Old),
		r.New.Status().String(),
		errorCell(r.New),
	}
	if r.Diff == nil {
		return append(cols, FetchErrorText, FetchErrorText, FetchErrorText, NotAvailable)
	}
	return append(cols,
		r.Diff.OnlyOldText(),
		r.Diff.OnlyNewText(),
		r.Diff.CommonText(),
		r.Diff.Similarity(),
	)
}

func errorCell(o FetchOutcome) string {
	if o.Reason() == "" {
		return NoError
	}
	return o.Reason()
}
