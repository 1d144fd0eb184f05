package aggregate

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xlsxparser"
)

// =============================================================================
// TROUBLESHOOTING PREVIEW
// =============================================================================
//
// When an order comes out empty the operator needs to see what the engine saw:
// the first rows of the first sheet with raw and normalized values side by
// side.

// DefaultPreviewRows is the number of rows shown when none is requested.
const DefaultPreviewRows = 10

// PreviewRow is one row of a troubleshooting preview.
type PreviewRow struct {
	// RowNumber is 1-based, as shown in a spreadsheet application.
	RowNumber int

	// Header is true for rows above the layout's start row.
	Header bool

	RawCode string
	Code    string

	RawQuantity string
	Quantity    float64
	HasQuantity bool
}

// Preview reads the first limit rows of the first sheet of r.
func (a *Aggregator) Preview(r xlsxparser.Reader, opts Options, limit int) ([]PreviewRow, error) {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	sheet, err := xlsxparser.ReadSheetAt(r, 0, xlsxparser.ReadOptions{Columns: opts.columns(), MaxRows: limit})
	if err != nil {
		return nil, err
	}

	rows := make([]PreviewRow, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		codeCell := row.Cell(opts.CodeColumn)
		if opts.SecondaryCodeColumn != nil && !types.IsEmpty(row.Cell(*opts.SecondaryCodeColumn)) {
			codeCell = row.Cell(*opts.SecondaryCodeColumn)
		}
		qtyCell := row.Cell(opts.QuantityColumn)
		qty, ok := a.normalizer.Number(qtyCell)

		rows = append(rows, PreviewRow{
			RowNumber:   address.IndexToRowNumber(row.Index),
			Header:      row.Index < opts.StartRowIndex,
			RawCode:     codeCell.String(),
			Code:        a.resolveCode(row, opts),
			RawQuantity: qtyCell.String(),
			Quantity:    qty,
			HasQuantity: ok,
		})
	}
	return rows, nil
}

// PreviewLines renders a preview as operator-facing text, one line per row.
func PreviewLines(rows []PreviewRow) []string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		qty := "-"
		if r.HasQuantity {
			qty = types.FormatNumber(r.Quantity)
		}

		marker := ""
		if r.Header {
			marker = " (header)"
		}
		lines = append(lines, fmt.Sprintf("%d%s: code %q -> %q, qty %q -> %s",
			r.RowNumber, marker, strings.TrimRight(r.RawCode, "\n"), r.Code, r.RawQuantity, qty))
	}
	return lines
}
