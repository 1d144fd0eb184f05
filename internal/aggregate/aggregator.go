// =============================================================================
// Order Reconciler - Multi-Sheet Aggregator
// =============================================================================
//
// The aggregator turns one source workbook (warehouse order or preorders)
// into a code -> quantity map.
//
// SCAN RULES:
//   1. Every sheet is visited, in workbook order
//   2. Rows from StartRowIndex up to the row cap are considered
//   3. The secondary code column wins when it is set and non-empty
//   4. Rows without a code, or without a positive quantity, add nothing
//   5. Quantities for the same normalized code are summed across rows and
//      sheets
//
// ROW CAP:
//   Each sheet is read up to MaxRowsPerSheet rows. A sheet with content past
//   the cap is listed in Diagnostics.TruncatedSheets and logged as a warning;
//   with FailOnTruncation the run fails instead.
//
// =============================================================================

package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/logging"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/normalize"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xlsxparser"
)

// DefaultMaxRowsPerSheet is the row cap used when Options leaves it at zero.
const DefaultMaxRowsPerSheet = 1000

// ErrRowCapExceeded is returned when FailOnTruncation is set and a sheet had
// rows past the cap.
var ErrRowCapExceeded = errors.New("row cap exceeded")

// =============================================================================
// OPTIONS
// =============================================================================

// Options describes one scan.
type Options struct {
	CodeColumn          int
	QuantityColumn      int
	SecondaryCodeColumn *int
	StartRowIndex       int

	// MaxRowsPerSheet caps rows read per sheet, counted from row index 0.
	// Default: 1000
	MaxRowsPerSheet int

	// FailOnTruncation turns a truncated sheet into ErrRowCapExceeded.
	FailOnTruncation bool
}

// OptionsFor builds scan options from a document layout.
func OptionsFor(cfg layout.Config, maxRows int, failOnTruncation bool) Options {
	return Options{
		CodeColumn:          cfg.CodeColumn,
		QuantityColumn:      cfg.QuantityColumn,
		SecondaryCodeColumn: cfg.SecondaryCodeColumn,
		StartRowIndex:       cfg.StartRowIndex,
		MaxRowsPerSheet:     maxRows,
		FailOnTruncation:    failOnTruncation,
	}
}

func (o Options) rowCap() int {
	if o.MaxRowsPerSheet <= 0 {
		return DefaultMaxRowsPerSheet
	}
	return o.MaxRowsPerSheet
}

func (o Options) columns() []int {
	cols := []int{o.CodeColumn, o.QuantityColumn}
	if o.SecondaryCodeColumn != nil {
		cols = append(cols, *o.SecondaryCodeColumn)
	}
	return cols
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator scans source workbooks.
type Aggregator struct {
	normalizer *normalize.Normalizer
	logger     logging.Logger
}

// New creates an Aggregator. A nil normalizer means case-sensitive defaults;
// a nil logger discards output.
func New(n *normalize.Normalizer, logger logging.Logger) *Aggregator {
	if n == nil {
		n = normalize.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{normalizer: n, logger: logger}
}

// AggregateFile opens path with the given reader kind and aggregates it.
func (a *Aggregator) AggregateFile(path string, kind xlsxparser.Kind, opts Options) (types.QuantityMap, types.Diagnostics, error) {
	r, err := xlsxparser.Open(path, kind)
	if err != nil {
		return nil, types.Diagnostics{Source: path}, err
	}
	defer r.Close()

	return a.Aggregate(r, opts)
}

// Aggregate scans every sheet of r. The returned map only holds strictly
// positive quantities.
func (a *Aggregator) Aggregate(r xlsxparser.Reader, opts Options) (types.QuantityMap, types.Diagnostics, error) {
	diag := types.Diagnostics{
		Source:              r.Path(),
		CodeColumn:          opts.CodeColumn,
		SecondaryCodeColumn: opts.SecondaryCodeColumn,
		QuantityColumn:      opts.QuantityColumn,
		StartRowIndex:       opts.StartRowIndex,
	}
	if opts.CodeColumn < 0 || opts.QuantityColumn < 0 || opts.StartRowIndex < 0 {
		return nil, diag, types.ConfigurationError("aggregate", "code column, quantity column and start row are required")
	}

	quantities := make(types.QuantityMap)
	readOpts := xlsxparser.ReadOptions{Columns: opts.columns(), MaxRows: opts.rowCap()}

	for _, name := range r.SheetNames() {
		sheet, err := r.ReadSheet(name, readOpts)
		if err != nil {
			return nil, diag, err
		}
		diag.SheetsScanned++

		if sheet.Truncated {
			diag.TruncatedSheets = append(diag.TruncatedSheets, name)
			a.logger.Warnf("Sheet %q of %s has rows past the %d-row cap; they were not counted",
				name, r.Path(), readOpts.MaxRows)
		}

		for i := opts.StartRowIndex; i < len(sheet.Rows); i++ {
			a.scanRow(sheet.Name, sheet.Rows[i], opts, quantities, &diag)
		}
	}

	diag.DistinctCodes = len(quantities)
	a.logger.Debugf("Aggregated %s: %s", r.Path(), diag.Summary())

	if opts.FailOnTruncation && len(diag.TruncatedSheets) > 0 {
		return nil, diag, fmt.Errorf("%s: sheets %s: %w",
			r.Path(), strings.Join(diag.TruncatedSheets, ", "), ErrRowCapExceeded)
	}
	return quantities, diag, nil
}

func (a *Aggregator) scanRow(sheet string, row xlsxparser.Row, opts Options, quantities types.QuantityMap, diag *types.Diagnostics) {
	diag.RowsSeen++

	code := a.resolveCode(row, opts)
	if code == "" {
		return
	}
	diag.CodesSeen++

	cell := row.Cell(opts.QuantityColumn)
	qty, ok := a.normalizer.Number(cell)
	if !ok {
		if !types.IsEmpty(cell) {
			diag.InvalidQuantityRows++
			a.logger.Debugf("Sheet %q row %d: quantity %q for %s is not a number",
				sheet, address.IndexToRowNumber(row.Index), cell.String(), code)
		}
		return
	}
	if qty <= 0 {
		return
	}

	diag.PositiveQuantityRows++
	quantities[code] += qty
}

// resolveCode applies the secondary-column precedence rule.
func (a *Aggregator) resolveCode(row xlsxparser.Row, opts Options) string {
	if opts.SecondaryCodeColumn != nil {
		if code := a.normalizer.Code(row.Cell(*opts.SecondaryCodeColumn)); code != "" {
			return code
		}
	}
	return a.normalizer.Code(row.Cell(opts.CodeColumn))
}
