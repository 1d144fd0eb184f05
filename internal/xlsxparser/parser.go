// =============================================================================
// Order Reconciler - Spreadsheet Reader
// =============================================================================
//
// This package reads supplier workbooks and turns their cells into the closed
// set of types.CellValue variants. Two implementations exist behind the same
// Reader interface:
//
//   | Kind     | Library                     | Notes                          |
//   |----------|-----------------------------|--------------------------------|
//   | excelize | github.com/xuri/excelize/v2 | default, detects rich text     |
//   | stream   | github.com/thedatashed/...  | low memory, flattens rich text |
//
// ROW MODEL:
//   Sheet.Rows is dense: Rows[i].Index == i for every row up to the cap, so a
//   layout's 0-based row indices address it directly. Cells are sparse and
//   keyed by 0-based column.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

// Kind selects a Reader implementation.
type Kind string

const (
	KindExcelize Kind = "excelize"
	KindStream   Kind = "stream"
)

// ParseKind accepts "excelize", "stream" or "" (excelize).
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindExcelize:
		return KindExcelize, nil
	case KindStream:
		return KindStream, nil
	}
	return "", fmt.Errorf("unknown reader %q (want %q or %q)", s, KindExcelize, KindStream)
}

// =============================================================================
// READER
// =============================================================================

// Reader gives access to the sheets of one workbook.
type Reader interface {
	// Path is the workbook being read.
	Path() string

	// SheetNames lists sheets in workbook order.
	SheetNames() []string

	// ReadSheet loads one sheet.
	ReadSheet(name string, opts ReadOptions) (*Sheet, error)

	// Close releases the underlying file.
	Close() error
}

// ReadOptions limits what ReadSheet loads.
type ReadOptions struct {
	// Columns restricts the cells kept per row. Nil keeps every cell.
	Columns []int

	// MaxRows caps the number of rows kept, counted from row index 0.
	// Zero or negative means no cap.
	MaxRows int
}

func (o ReadOptions) wants(col int) bool {
	if o.Columns == nil {
		return true
	}
	for _, c := range o.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Sheet is the content of one worksheet.
type Sheet struct {
	Name string
	Rows []Row

	// Truncated is set when the sheet had non-empty rows at or beyond
	// ReadOptions.MaxRows.
	Truncated bool
}

// Row returns the row at index, or an empty row when the sheet is shorter.
func (s *Sheet) Row(index int) Row {
	if index >= 0 && index < len(s.Rows) {
		return s.Rows[index]
	}
	return Row{Index: index}
}

// Row is one sheet row with its cells keyed by 0-based column.
type Row struct {
	Index int
	Cells map[int]types.CellValue
}

// Cell returns the value at column, or types.Empty when there is none.
func (r Row) Cell(column int) types.CellValue {
	if v, ok := r.Cells[column]; ok && v != nil {
		return v
	}
	return types.Empty{}
}

// IsEmpty reports whether the row has no non-blank cell.
func (r Row) IsEmpty() bool {
	for _, v := range r.Cells {
		if !types.IsEmpty(v) {
			return false
		}
	}
	return true
}

// densify places rows by index and fills gaps with empty rows.
func densify(rows map[int]Row, last int) []Row {
	out := make([]Row, last+1)
	for i := range out {
		if r, ok := rows[i]; ok {
			out[i] = r
		} else {
			out[i] = Row{Index: i}
		}
	}
	return out
}

// =============================================================================
// OPENING WORKBOOKS
// =============================================================================

// Open checks that path is a supported spreadsheet package and opens it with
// the requested reader.
func Open(path string, kind Kind) (Reader, error) {
	if err := CheckPackage(path); err != nil {
		return nil, err
	}

	switch kind {
	case "", KindExcelize:
		r, err := OpenExcelize(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindStream:
		r, err := OpenStream(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown reader %q", kind)
}

// ReadSheetAt reads the sheet at position sheetIndex, for callers that only need
// one sheet of a workbook such as the price list.
func ReadSheetAt(r Reader, sheetIndex int, opts ReadOptions) (*Sheet, error) {
	names := r.SheetNames()
	if len(names) == 0 {
		return nil, types.UnsupportedFormat("read sheet", r.Path(), fmt.Errorf("workbook has no sheets"))
	}
	if sheetIndex < 0 || sheetIndex >= len(names) {
		return nil, types.ConfigurationError("read sheet", "sheet index %d out of range (workbook has %d sheets)", sheetIndex, len(names))
	}
	return r.ReadSheet(names[sheetIndex], opts)
}
