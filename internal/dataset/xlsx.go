package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads every sheet of a workbook. The first row of each sheet is its header.
type XLSXReader struct {
	file   *excelize.File
	sheets []string
	sheet  int
	rows   [][]string
	row    int
	header []string
}

// NewXLSXReader opens the workbook in r.
func NewXLSXReader(r io.Reader) (*XLSXReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	return &XLSXReader{file: f, sheets: f.GetSheetList(), sheet: -1}, nil
}

func (x *XLSXReader) Next() (map[string]interface{}, error) {
	for {
		for x.row < len(x.rows) {
			row := x.rows[x.row]
			x.row++
			if rec := rowRecord(x.header, row); len(rec) > 0 {
				return rec, nil
			}
		}
		x.sheet++
		if x.sheet >= len(x.sheets) {
			return nil, io.EOF
		}
		rows, err := x.file.GetRows(x.sheets[x.sheet])
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", x.sheets[x.sheet], err)
		}
		x.rows, x.row, x.header = nil, 0, nil
		if len(rows) > 0 {
			x.header = normalizeHeader(rows[0])
			x.rows = rows[1:]
		}
	}
}

func (x *XLSXReader) Close() error {
	return x.file.Close()
}
