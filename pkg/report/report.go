package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/shouni/go-web-diff/pkg/types"
)

// DefaultPreviewRows は、プレビュー表示する行数です。
const DefaultPreviewRows = 10

// Summary は比較結果全体の集計です。
type Summary struct {
	Total     int
	Compared  int
	Failed    int
	MeanRatio float64 // 比較できた行の類似度の平均 (0〜1)
}

// Summarize は結果を集計します。
func Summarize(results []types.PairResult) Summary {
	s := Summary{Total: len(results)}
	var sum float64
	for _, r := range results {
		if r.Compared() {
			s.Compared++
			sum += r.Diff.Ratio
			continue
		}
		s.Failed++
	}
	if s.Compared > 0 {
		s.MeanRatio = sum / float64(s.Compared)
	}
	return s
}

func (s Summary) String() string {
	if s.Compared == 0 {
		return fmt.Sprintf("完了: 比較 %d 件, 失敗 %d 件 (全 %d 件)", s.Compared, s.Failed, s.Total)
	}
	return fmt.Sprintf("完了: 比較 %d 件, 失敗 %d 件 (全 %d 件), 平均類似度 %.2f%%",
		s.Compared, s.Failed, s.Total, s.MeanRatio*100)
}

// RenderPreview は先頭 n 行を表形式で w に書き出します。
func RenderPreview(w io.Writer, results []types.PairResult, n int) {
	if n <= 0 || n > len(results) {
		n = len(results)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Old URL", "New URL", "Old", "New", "Similarity"})
	for _, r := range results[:n] {
		similarity := types.NotAvailable
		if r.Compared() {
			similarity = r.Diff.Similarity()
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(r.Pair.Index + 1),
			r.Pair.OldURL,
			r.Pair.NewURL,
			r.Old.Status().String(),
			r.New.Status().String(),
			similarity,
		})
	}
	if len(results) > n {
		tw.AppendFooter(table.Row{"", fmt.Sprintf("... 他 %d 件", len(results)-n)})
	}
	tw.Render()
}

// Progress は、各ペアの完了をログに出力する compare.Observer です。
type Progress struct {
	logger *zap.Logger
}

// NewProgress は Progress を生成します。
func NewProgress(logger *zap.Logger) *Progress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Progress{logger: logger}
}

// PairDone は進捗をログに出力します。
func (p *Progress) PairDone(done, total int, r types.PairResult) {
	fields := []zap.Field{
		zap.Int("done", done),
		zap.Int("total", total),
		zap.Int("row", r.Pair.Index),
	}
	if r.Compared() {
		fields = append(fields, zap.String("similarity", r.Diff.Similarity()))
		p.logger.Info("比較しました", fields...)
		return
	}
	fields = append(fields,
		zap.String("old_status", r.Old.Status().String()),
		zap.String("new_status", r.New.Status().String()),
	)
	p.logger.Warn("取得に失敗しました", fields...)
}
