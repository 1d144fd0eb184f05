// =============================================================================
// Order Reconciler - Shared Types
// =============================================================================
//
// This package contains the types passed between the reader, aggregation,
// merge and patch stages. Keeping them here avoids import cycles between:
//   - xlsxparser
//   - normalize
//   - aggregate
//   - patch
//   - converter
//
// =============================================================================

package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
)

// =============================================================================
// CELL VALUES
// =============================================================================

// CellValue is the closed set of values a spreadsheet reader produces for a
// single cell: Empty, PlainText, RichText or Number.
type CellValue interface {
	// String returns the flattened text of the value.
	String() string

	isCellValue()
}

// Empty is a cell that does not exist or holds nothing.
type Empty struct{}

// PlainText is a string cell without formatting runs.
type PlainText string

// RichText is a string cell made of several formatted runs.
type RichText []string

// Number is a numeric cell as stored in the sheet.
type Number float64

func (Empty) String() string { return "" }
func (v PlainText) String() string { return string(v) }
func (v RichText) String() string { return strings.Join(v, "") }
func (v Number) String() string { return FormatNumber(float64(v)) }

func (Empty) isCellValue() {}
func (PlainText) isCellValue() {}
func (RichText) isCellValue() {}
func (Number) isCellValue() {}

// IsEmpty reports whether v carries no text at all. A nil value counts as empty.
func IsEmpty(v CellValue) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(Empty); ok {
		return true
	}
	return strings.TrimSpace(v.String()) == ""
}

// =============================================================================
// QUANTITIES
// =============================================================================

// QuantityMap maps a normalized product code to an accumulated quantity.
type QuantityMap map[string]float64

// Codes returns the keys of m in sorted order.
func (m QuantityMap) Codes() []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Total returns the sum of every quantity in m.
func (m QuantityMap) Total() float64 {
	var total float64
	for _, q := range m {
		total += q
	}
	return total
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Diagnostics describes one aggregation pass over a source workbook. It is
// shown to the operator when a generated order comes out empty.
type Diagnostics struct {
	// Source is the path of the workbook that was scanned.
	Source string

	// SheetsScanned is the number of sheets visited.
	SheetsScanned int

	// RowsSeen counts rows at or after the start row, across all sheets.
	RowsSeen int

	// CodesSeen counts rows whose resolved code was not empty.
	CodesSeen int

	// PositiveQuantityRows counts rows that contributed a quantity.
	PositiveQuantityRows int

	// InvalidQuantityRows counts rows with a code and a non-blank quantity
	// cell that could not be read as a number.
	InvalidQuantityRows int

	// DistinctCodes is the number of keys in the resulting QuantityMap.
	DistinctCodes int

	// TruncatedSheets lists sheets that had rows beyond the row cap.
	TruncatedSheets []string

	// Column indices used for the scan, for troubleshooting output.
	CodeColumn          int
	SecondaryCodeColumn *int
	QuantityColumn      int
	StartRowIndex       int
}

// Summary renders d as one line of operator-facing text.
func (d Diagnostics) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sheets=%d rows=%d codes=%d positive=%d distinct=%d",
		d.SheetsScanned, d.RowsSeen, d.CodesSeen, d.PositiveQuantityRows, d.DistinctCodes)
	if d.InvalidQuantityRows > 0 {
		fmt.Fprintf(&b, " invalid_quantity=%d", d.InvalidQuantityRows)
	}

	codeCol, _ := address.IndexToColumnLetter(d.CodeColumn)
	qtyCol, _ := address.IndexToColumnLetter(d.QuantityColumn)
	fmt.Fprintf(&b, " code_col=%s qty_col=%s", codeCol, qtyCol)
	if d.SecondaryCodeColumn != nil {
		secCol, _ := address.IndexToColumnLetter(*d.SecondaryCodeColumn)
		fmt.Fprintf(&b, " secondary_col=%s", secCol)
	}
	fmt.Fprintf(&b, " start_row=%d", address.IndexToRowNumber(d.StartRowIndex))

	if len(d.TruncatedSheets) > 0 {
		fmt.Fprintf(&b, " truncated=%s", strings.Join(d.TruncatedSheets, ","))
	}
	return b.String()
}

// =============================================================================
// CELL UPDATES
// =============================================================================

// UpdateKind tells which column a CellUpdate writes.
type UpdateKind string

const (
	UpdateQuantity      UpdateKind = "quantity"
	UpdateSum           UpdateKind = "sum"
	UpdateTotalQuantity UpdateKind = "total_quantity"
	UpdateTotalSum      UpdateKind = "total_sum"
)

// CellUpdate is a single numeric value to write at a 0-based (column, row).
type CellUpdate struct {
	Column int
	Row    int
	Value  float64
	Kind   UpdateKind

	// Code is the normalized product code that produced the update. It is
	// empty for totals.
	Code string
}

// Ref returns the A1 reference of the target cell.
func (u CellUpdate) Ref() string {
	return address.CellRef(u.Column, u.Row)
}

// SkipReason explains why an update was not applied.
type SkipReason string

const (
	SkipRowMissing  SkipReason = "row missing"
	SkipCellMissing SkipReason = "cell missing"
	SkipNotNumeric  SkipReason = "cell is not numeric"
	SkipFormula     SkipReason = "cell holds a formula"
)

// SkippedUpdate pairs an update with the reason it was left out.
type SkippedUpdate struct {
	Update CellUpdate
	Reason SkipReason
}
