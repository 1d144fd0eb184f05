package xlsxparser

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

// =============================================================================
// EXCELIZE READER
// =============================================================================

// ExcelizeReader reads a workbook through excelize. It is the only reader that
// reports rich text as types.RichText.
type ExcelizeReader struct {
	path string
	f    *excelize.File
}

// OpenExcelize opens path with excelize. Callers normally use Open, which
// checks the package first.
func OpenExcelize(path string) (*ExcelizeReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, types.UnsupportedFormat("open workbook", path, err)
	}
	return &ExcelizeReader{path: path, f: f}, nil
}

// Path implements Reader.
func (r *ExcelizeReader) Path() string { return r.path }

// SheetNames implements Reader.
func (r *ExcelizeReader) SheetNames() []string {
	return r.f.GetSheetList()
}

// ReadSheet implements Reader. Values are read raw, so a number formatted as
// "1 234,00" on screen arrives as its stored "1234".
func (r *ExcelizeReader) ReadSheet(name string, opts ReadOptions) (*Sheet, error) {
	raw, err := r.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, types.IOError("read sheet "+strconv.Quote(name), r.path, err)
	}

	sheet := &Sheet{Name: name}

	limit := len(raw)
	if opts.MaxRows > 0 && limit > opts.MaxRows {
		for _, row := range raw[opts.MaxRows:] {
			if !blankRow(row) {
				sheet.Truncated = true
				break
			}
		}
		limit = opts.MaxRows
	}

	sheet.Rows = make([]Row, limit)
	for i := 0; i < limit; i++ {
		row := Row{Index: i}
		for col, text := range raw[i] {
			if text == "" || !opts.wants(col) {
				continue
			}
			if row.Cells == nil {
				row.Cells = make(map[int]types.CellValue)
			}
			row.Cells[col] = r.cellValue(name, col, i, text)
		}
		sheet.Rows[i] = row
	}

	return sheet, nil
}

// Close implements Reader.
func (r *ExcelizeReader) Close() error {
	return r.f.Close()
}

// cellValue classifies one non-empty raw cell by its stored type.
func (r *ExcelizeReader) cellValue(sheet string, col, row int, raw string) types.CellValue {
	ref := address.CellRef(col, row)

	typ, err := r.f.GetCellType(sheet, ref)
	if err != nil {
		return types.PlainText(raw)
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return types.Number(f)
		}
		return types.PlainText(raw)

	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		runs, err := r.f.GetCellRichText(sheet, ref)
		if err == nil && len(runs) > 1 {
			texts := make([]string, len(runs))
			for i, run := range runs {
				texts[i] = run.Text
			}
			return types.RichText(texts)
		}
		return types.PlainText(raw)

	default:
		// Booleans, dates, errors and string formulas keep their text.
		return types.PlainText(raw)
	}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
