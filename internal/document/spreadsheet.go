package document

import (
	"bytes"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// rowLine renders a sheet row as a single pipe-delimited line, or "" when
// every cell is blank.
func rowLine(cells []string) string {
	empty := true
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			empty = false
			break
		}
	}
	if empty {
		return ""
	}
	return strings.Join(cells, " | ")
}

// xlsxToText flattens a ZIP-based workbook: every non-empty row of every
// sheet becomes one line, in sheet order then row order.
func (e *Extractor) xlsxToText(data []byte) string {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		e.log.Warn("document.xlsx.open_failed", "error", err)
		return ""
	}
	defer func() {
		if err := f.Close(); err != nil {
			e.log.Warn("document.xlsx.close_failed", "error", err)
		}
	}()

	var out []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			e.log.Warn("document.xlsx.rows_failed", "sheet", sheet, "error", err)
			continue
		}
		for _, row := range rows {
			if line := rowLine(row); line != "" {
				out = append(out, line)
			}
		}
	}
	return strings.Join(out, "\n")
}

// xlsToText flattens a legacy OLE2 workbook the same way.
func (e *Extractor) xlsToText(data []byte) string {
	wb, err := xls.OpenReader(bytes.NewReader(data), "cp1251")
	if err != nil {
		e.log.Warn("document.xls.open_failed", "error", err)
		return ""
	}

	var out []string
	for si := 0; si < wb.NumSheets(); si++ {
		sheet := wb.GetSheet(si)
		if sheet == nil {
			continue
		}
		for ri := 0; ri <= int(sheet.MaxRow); ri++ {
			row := sheet.Row(ri)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol()-row.FirstCol())
			for ci := row.FirstCol(); ci < row.LastCol(); ci++ {
				cells = append(cells, row.Col(ci))
			}
			if line := rowLine(cells); line != "" {
				out = append(out, line)
			}
		}
	}
	return strings.Join(out, "\n")
}
