package rawfile

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
)

// readXLSXFile reads the first sheet of a workbook using the same tabular
// layout as CSV sources: a header row of column names, one item per data row.
func readXLSXFile(path string) ([]assembly.RawItem, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := requireColumns(header); err != nil {
		return nil, err
	}

	var out []assembly.RawItem
	for i, record := range rows[1:] {
		if isEmptyRow(record) {
			continue
		}
		item, err := rowToItem(header, record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
