package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV は先頭行を見出しとして CSV を読み込みます。
func ReadCSV(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSVが空です")
	}
	if err != nil {
		return nil, fmt.Errorf("見出し行の読み込みに失敗しました: %w", err)
	}

	s := &Sheet{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("データ行の読み込みに失敗しました: %w", err)
		}
		s.Rows = append(s.Rows, rec)
	}
	return s, nil
}

// WriteCSV は Sheet を CSV として書き出します。
func WriteCSV(w io.Writer, s *Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header); err != nil {
		return fmt.Errorf("見出し行の書き込みに失敗しました: %w", err)
	}
	if err := cw.WriteAll(s.Rows); err != nil {
		return fmt.Errorf("データ行の書き込みに失敗しました: %w", err)
	}
	return nil
}
