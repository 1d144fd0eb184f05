// =============================================================================
// Order Reconciler - Cell Addressing
// =============================================================================
//
// Conversions between the notation operators use when describing a sheet
// (column letters, 1-based row numbers) and the 0-based indices used by every
// other package in this module.
//
// BOUNDARY RULE:
//   Values entered by an operator are converted here exactly once, when a
//   supplier configuration is loaded. Nothing downstream ever sees a letter or
//   a 1-based row number.
//
// =============================================================================

package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidFormat is returned for column letters or cell references that cannot
// be decoded, and for indices outside the sheet limits.
var ErrInvalidFormat = errors.New("invalid format")

// =============================================================================
// COLUMNS
// =============================================================================

// ColumnLetterToIndex decodes a column name such as "A", "j" or "AA" into a
// 0-based index. Surrounding spaces are ignored and case does not matter.
//
// EXAMPLES:
//   "A"  -> 0
//   "Z"  -> 25
//   "AA" -> 26
func ColumnLetterToIndex(letters string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(letters))
	if err != nil {
		return 0, fmt.Errorf("column %q: %w: %v", letters, ErrInvalidFormat, err)
	}
	return n - 1, nil
}

// IndexToColumnLetter encodes a 0-based column index as letters.
func IndexToColumnLetter(index int) (string, error) {
	name, err := excelize.ColumnNumberToName(index + 1)
	if err != nil {
		return "", fmt.Errorf("column index %d: %w: %v", index, ErrInvalidFormat, err)
	}
	return name, nil
}

// =============================================================================
// ROWS
// =============================================================================

// RowNumberToIndex converts a 1-based row number, as shown in a spreadsheet
// application, to a 0-based index.
func RowNumberToIndex(number int) int {
	return number - 1
}

// IndexToRowNumber converts a 0-based row index to the 1-based number shown in
// a spreadsheet application.
func IndexToRowNumber(index int) int {
	return index + 1
}

// =============================================================================
// CELL REFERENCES
// =============================================================================

// CellRef builds an A1-style reference from 0-based column and row indices.
// Negative or out-of-range indices yield an empty string.
func CellRef(column, row int) string {
	ref, err := excelize.CoordinatesToCellName(column+1, IndexToRowNumber(row))
	if err != nil {
		return ""
	}
	return ref
}

// SplitCellRef is the inverse of CellRef. It accepts references such as "J6"
// and returns the 0-based column and row. Absolute markers ("$J$6") are
// tolerated.
func SplitCellRef(ref string) (column, row int, err error) {
	col, number, err := excelize.CellNameToCoordinates(strings.TrimSpace(ref))
	if err != nil {
		return 0, 0, fmt.Errorf("cell reference %q: %w: %v", ref, ErrInvalidFormat, err)
	}
	return col - 1, RowNumberToIndex(number), nil
}
