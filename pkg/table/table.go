package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-web-diff/pkg/types"
)

const (
	// DefaultOldColumn と DefaultNewColumn は、入力シートのURL列の見出しです。
	DefaultOldColumn = "Old_URL"
	DefaultNewColumn = "New_URL"
)

// Sheet は見出し行とデータ行からなる表です。
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Read は拡張子 (.xlsx / .csv) に応じてファイルを読み込みます。
func Read(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("入力ファイルのオープンに失敗しました: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return ReadExcel(f)
	case ".csv":
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("未対応のファイル形式です: %s (.xlsx または .csv を指定してください)", ext)
	}
}

// Write は拡張子 (.xlsx / .csv) に応じてファイルへ書き出します。
func Write(path string, s *Sheet) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("未対応のファイル形式です: %s (.xlsx または .csv を指定してください)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("出力ファイルの作成に失敗しました: %w", err)
	}

	if ext == ".xlsx" {
		err = WriteExcel(f, s)
	} else {
		err = WriteCSV(f, s)
	}
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("出力ファイルのクローズに失敗しました: %w", closeErr)
	}
	return err
}

// columnIndex は見出しの位置を返します。前後の空白は無視します。
func (s *Sheet) columnIndex(name string) int {
	for i, h := range s.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Pairs は指定された2列からURLペアを取り出します。Index はデータ行の位置です。
func (s *Sheet) Pairs(oldColumn, newColumn string) ([]types.URLPair, error) {
	oldIdx, newIdx := s.columnIndex(oldColumn), s.columnIndex(newColumn)
	if oldIdx < 0 || newIdx < 0 {
		return nil, fmt.Errorf("入力シートには '%s' と '%s' の列が必要です", oldColumn, newColumn)
	}

	pairs := make([]types.URLPair, len(s.Rows))
	for i, row := range s.Rows {
		pairs[i] = types.URLPair{
			Index:  i,
			OldURL: strings.TrimSpace(cell(row, oldIdx)),
			NewURL: strings.TrimSpace(cell(row, newIdx)),
		}
	}
	return pairs, nil
}

// AppendResults は、元の列の後ろに結果列を追加した新しい Sheet を返します。
// results は Pairs が返した順序 (Index 順) である必要があります。
func (s *Sheet) AppendResults(results []types.PairResult) (*Sheet, error) {
	if len(results) != len(s.Rows) {
		return nil, fmt.Errorf("結果の件数 (%d) が入力行数 (%d) と一致しません", len(results), len(s.Rows))
	}

	width := len(s.Header)
	out := &Sheet{
		Header: append(append(make([]string, 0, width+len(types.ResultHeaders)), s.Header...), types.ResultHeaders...),
		Rows:   make([][]string, len(s.Rows)),
	}
	for i, row := range s.Rows {
		if results[i].Pair.Index != i {
			return nil, fmt.Errorf("結果の順序が不正です: 位置 %d に行 %d の結果があります", i, results[i].Pair.Index)
		}
		padded := make([]string, width, width+len(types.ResultHeaders))
		copy(padded, row)
		out.Rows[i] = append(padded, results[i].Columns()...)
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
