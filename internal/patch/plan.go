package patch

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/logging"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/normalize"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xlsxparser"
)

// =============================================================================
// UPDATE PLANNING
// =============================================================================

// Plan builds the line updates for a price list.
//
// RULES:
//   - Rows from cfg.StartRowIndex onward are considered; the total row is not
//   - A row whose normalized code has a positive quantity gets one quantity
//     update
//   - When cfg.HasSum() and the row's price parses to a positive number, the
//     row also gets one sum update of price x quantity
//
// The result never holds more than two updates per row. Totals are planned
// separately by TotalUpdates, once the line updates have been applied.
func Plan(sheet *xlsxparser.Sheet, quantities types.QuantityMap, cfg layout.Config, n *normalize.Normalizer, logger logging.Logger) []types.CellUpdate {
	if n == nil {
		n = normalize.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	var updates []types.CellUpdate
	matchedRow := make(map[string]int)

	for i := cfg.StartRowIndex; i < len(sheet.Rows); i++ {
		if cfg.TotalRowIndex != nil && i == *cfg.TotalRowIndex {
			continue
		}
		row := sheet.Rows[i]

		code := n.Code(row.Cell(cfg.CodeColumn))
		if code == "" {
			continue
		}
		qty, ok := quantities[code]
		if !ok || qty <= 0 {
			continue
		}
		if first, dup := matchedRow[code]; dup {
			logger.Warnf("Code %s appears on price list rows %d and %d; both rows receive the quantity",
				code, first+1, i+1)
		} else {
			matchedRow[code] = i
		}

		updates = append(updates, types.CellUpdate{
			Column: cfg.QuantityColumn, Row: i, Value: qty, Kind: types.UpdateQuantity, Code: code,
		})

		if !cfg.HasSum() {
			continue
		}
		price, ok := n.Number(row.Cell(*cfg.PriceColumn))
		if !ok || price <= 0 {
			logger.Debugf("Price list row %d (%s): no usable price %q, sum left alone",
				i+1, code, row.Cell(*cfg.PriceColumn).String())
			continue
		}
		updates = append(updates, types.CellUpdate{
			Column: *cfg.SumColumn, Row: i, Value: lineSum(price, qty), Kind: types.UpdateSum, Code: code,
		})
	}

	return updates
}

// lineSum multiplies in decimal so that 0.1 x 3 is written as 0.3.
func lineSum(price, qty float64) float64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(qty)).InexactFloat64()
}

// =============================================================================
// TOTALS
// =============================================================================

// Totals are the order totals over applied line updates.
type Totals struct {
	Items    int
	Quantity float64
	Sum      float64
}

// TotalsOf sums the applied line updates. Items counts distinct codes that
// received a quantity.
func TotalsOf(applied []types.CellUpdate) Totals {
	qty, sum := decimal.Zero, decimal.Zero
	codes := make(map[string]bool)

	for _, u := range applied {
		switch u.Kind {
		case types.UpdateQuantity:
			qty = qty.Add(decimal.NewFromFloat(u.Value))
			codes[u.Code] = true
		case types.UpdateSum:
			sum = sum.Add(decimal.NewFromFloat(u.Value))
		}
	}
	return Totals{Items: len(codes), Quantity: qty.InexactFloat64(), Sum: sum.InexactFloat64()}
}

// TotalUpdates returns the updates for the configured total row: the total
// sum into the sum column when line sums are enabled, and the total quantity into the quantity column
// when cfg.TotalQuantity is set.
func TotalUpdates(t Totals, cfg layout.Config) []types.CellUpdate {
	if cfg.TotalRowIndex == nil {
		return nil
	}
	row := *cfg.TotalRowIndex

	var updates []types.CellUpdate
	if cfg.HasSum() {
		updates = append(updates, types.CellUpdate{Column: *cfg.SumColumn, Row: row, Value: t.Sum, Kind: types.UpdateTotalSum})
	}
	if cfg.TotalQuantity {
		updates = append(updates, types.CellUpdate{Column: cfg.QuantityColumn, Row: row, Value: t.Quantity, Kind: types.UpdateTotalQuantity})
	}
	return updates
}
