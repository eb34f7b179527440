package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadWorkbook returns the non-blank, trimmed rows of one worksheet. A named
// sheet must exist. With no name, the first sheet whose leading row carries
// a recognised roster header is used, so cover and instruction tabs are
// skipped.
func ReadWorkbook(data []byte, sheet string) ([][]string, error) {
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	return workbookTable(wb, sheet)
}

func workbookTable(wb *xlsx.File, name string) ([][]string, error) {
	if name != "" {
		s, ok := wb.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheetTable(s), nil
	}

	for _, s := range wb.Sheets {
		table := sheetTable(s)
		if len(table) > 0 && len(columnIndex(table[0])) > 0 {
			return table, nil
		}
	}
	return nil, eris.Errorf("xlsx: none of %d sheets has a roster header", len(wb.Sheets))
}

func sheetTable(s *xlsx.Sheet) [][]string {
	var table [][]string
	for _, r := range s.Rows {
		if r == nil {
			continue
		}
		row := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			row[i] = c.String()
		}
		if row = trimRow(row); row != nil {
			table = append(table, row)
		}
	}
	return table
}
