package xlsxparser

import (
	"strconv"
	"strings"

	"github.com/thedatashed/xlsxreader"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

// =============================================================================
// STREAMING READER
// =============================================================================

// StreamReader reads rows through xlsxreader without loading the whole sheet
// model. Rich text arrives already flattened and is returned as PlainText.
type StreamReader struct {
	path string
	xl   *xlsxreader.XlsxFileCloser
}

// OpenStream opens path with xlsxreader.
func OpenStream(path string) (*StreamReader, error) {
	xl, err := xlsxreader.OpenFile(path)
	if err != nil {
		return nil, types.UnsupportedFormat("open workbook", path, err)
	}
	return &StreamReader{path: path, xl: xl}, nil
}

// Path implements Reader.
func (r *StreamReader) Path() string { return r.path }

// SheetNames implements Reader.
func (r *StreamReader) SheetNames() []string {
	return append([]string(nil), r.xl.Sheets...)
}

// ReadSheet implements Reader. The row channel is always drained so the
// producing goroutine can exit, even past the row cap.
func (r *StreamReader) ReadSheet(name string, opts ReadOptions) (*Sheet, error) {
	sheet := &Sheet{Name: name}
	rows := make(map[int]Row)
	last := -1
	next := 0
	var readErr error

	for row := range r.xl.ReadRows(name) {
		if row.Error != nil {
			if readErr == nil {
				readErr = row.Error
			}
			continue
		}

		// Row.Index is the 1-based r attribute; rows without one follow on.
		idx := next
		if row.Index > 0 {
			idx = address.RowNumberToIndex(row.Index)
		}
		next = idx + 1

		if opts.MaxRows > 0 && idx >= opts.MaxRows {
			if streamRowHasValue(row) {
				sheet.Truncated = true
			}
			continue
		}

		out := Row{Index: idx}
		for _, c := range row.Cells {
			if c.Value == "" {
				continue
			}
			col, err := address.ColumnLetterToIndex(c.Column)
			if err != nil || !opts.wants(col) {
				continue
			}
			if out.Cells == nil {
				out.Cells = make(map[int]types.CellValue)
			}
			out.Cells[col] = streamValue(c)
		}
		rows[idx] = out
		if idx > last {
			last = idx
		}
	}

	if readErr != nil {
		return nil, types.IOError("read sheet "+strconv.Quote(name), r.path, readErr)
	}

	sheet.Rows = densify(rows, last)
	return sheet, nil
}

// Close implements Reader.
func (r *StreamReader) Close() error {
	return r.xl.Close()
}

func streamValue(c xlsxreader.Cell) types.CellValue {
	if c.Type == xlsxreader.TypeNumerical {
		if f, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64); err == nil {
			return types.Number(f)
		}
	}
	return types.PlainText(c.Value)
}

func streamRowHasValue(row xlsxreader.Row) bool {
	for _, c := range row.Cells {
		if strings.TrimSpace(c.Value) != "" {
			return true
		}
	}
	return false
}
