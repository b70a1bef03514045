package table

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ResultSheetName は、書き出す Excel ファイルのシート名です。
const ResultSheetName = "Sheet1"

// ReadExcel は最初のシートを読み込み、1行目を見出しとして扱います。
func ReadExcel(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("Excelファイルのオープンに失敗しました: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excelファイルにシートがありません")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("シート '%s' の読み込みに失敗しました: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("シート '%s' が空です", sheets[0])
	}
	return &Sheet{Header: rows[0], Rows: rows[1:]}, nil
}

// WriteExcel は Sheet を1枚のシートを持つ xlsx として書き出します。
func WriteExcel(w io.Writer, s *Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, s.Header); err != nil {
		return err
	}
	for i, row := range s.Rows {
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("Excelファイルの書き込みに失敗しました: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cellName, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ResultSheetName, cellName, &values); err != nil {
		return fmt.Errorf("%d行目の書き込みに失敗しました: %w", rowNum, err)
	}
	return nil
}
