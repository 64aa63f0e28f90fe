package baseline

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"fedramphub/internal"
	"fedramphub/internal/util"
)

// headerScanRows is how many leading rows may hold the header. The published
// workbook puts a title banner above it.
const headerScanRows = 3

// Workbook is the flattened content of a baseline spreadsheet.
type Workbook struct {
	Sheets []string
	Rows   []internal.BaselineRow
	// Raw is the file content, kept for fingerprinting.
	Raw []byte
}

func ReadWorkbook(path string) (*Workbook, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline workbook: %w", err)
	}
	return ReadWorkbookBytes(content)
}

// ReadWorkbookBytes turns every sheet into rows keyed by header text. Header
// cells are whitespace-collapsed, so "FedRAMP\nParameter" is stored as
// "FedRAMP Parameter". Every header column is present in each row, empty
// when the row is short. Sheets without a recognisable header keep their rows,
// keyed by column letter.
func ReadWorkbookBytes(content []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open baseline workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{Raw: content}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			slog.Warn("skipping unreadable sheet", "sheet", sheet, "error", err)
			continue
		}
		wb.Sheets = append(wb.Sheets, sheet)
		wb.Rows = append(wb.Rows, sheetRows(sheet, rows)...)
	}
	return wb, nil
}

func sheetRows(sheet string, rows [][]string) []internal.BaselineRow {
	headerIdx := -1
	var headers []string
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		cells := normalizeCells(rows[i])
		if findHeaderIndex(cells, internal.ColumnSortID) >= 0 {
			headerIdx, headers = i, cells
			break
		}
	}

	out := []internal.BaselineRow{}
	for i := headerIdx + 1; i < len(rows); i++ {
		cells := normalizeCells(rows[i])
		if isBlank(cells) {
			continue
		}
		row := internal.BaselineRow{Sheet: sheet, RowNumber: i + 1, Fields: map[string]string{}}
		// GetRows drops trailing empty cells; short rows still carry every
		// header key.
		for c := range headers {
			if key := columnKey(headers, c); key != "" {
				row.Fields[key] = ""
			}
		}
		for c, value := range cells {
			key := columnKey(headers, c)
			if key == "" {
				continue
			}
			row.Fields[key] = value
			if isParameterColumn(key) && strings.EqualFold(value, "X") {
				row.HasParameter = true
			}
		}
		out = append(out, row)
	}
	return out
}

func columnKey(headers []string, idx int) string {
	if idx < len(headers) {
		if h := headers[idx]; h != "" {
			if strings.EqualFold(h, internal.ColumnSortID) {
				return internal.ColumnSortID
			}
			return h
		}
		if headers != nil {
			return ""
		}
	}
	name, err := excelize.ColumnNumberToName(idx + 1)
	if err != nil {
		return ""
	}
	return name
}

func isParameterColumn(header string) bool {
	return strings.Contains(strings.ToLower(header), "parameter")
}

func findHeaderIndex(cells []string, header string) int {
	for i, c := range cells {
		if strings.EqualFold(c, header) {
			return i
		}
	}
	return -1
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, util.NormalizeSpaces(c))
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
