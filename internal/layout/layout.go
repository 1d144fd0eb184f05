// =============================================================================
// Order Reconciler - Layout Configuration
// =============================================================================
//
// A layout tells the engine where the interesting columns of one document
// live. Three layouts exist per supplier:
//   - price_list      : code, quantity, optional price and sum, optional totals
//   - warehouse_order : code and quantity
//   - preorders       : code, quantity, optional secondary code
//
// All indices are 0-based. Operator-facing letters and row numbers are
// converted by the config package before a Config is built.
//
// A Config is read-only for the engine. It is passed by value so a run can
// never change the caller's copy.
//
// =============================================================================

package layout

import "fmt"

// Unset marks a required column or row that the supplier configuration did
// not provide. Validation rejects it.
const Unset = -1

// Role identifies which of the three documents a layout describes.
type Role string

const (
	RolePriceList      Role = "price_list"
	RoleWarehouseOrder Role = "warehouse_order"
	RolePreorders      Role = "preorders"
)

// Roles lists every role in the order the engine reads them.
var Roles = []Role{RolePriceList, RoleWarehouseOrder, RolePreorders}

// =============================================================================
// CONFIG
// =============================================================================

// Config is the layout of a single document.
type Config struct {
	// StartRowIndex is the first data row. Rows above it are headers.
	StartRowIndex int

	// CodeColumn holds the product code.
	CodeColumn int

	// QuantityColumn holds the requested quantity. On the price list this is
	// the column that receives the final quantity.
	QuantityColumn int

	// SecondaryCodeColumn is checked before CodeColumn when set. Only the
	// preorder sheet uses it.
	SecondaryCodeColumn *int

	// PriceColumn and SumColumn enable the line sum on the price list. Both
	// must be set for sums to be written.
	PriceColumn *int
	SumColumn   *int

	// SheetIndex selects the price-list sheet that is read and patched.
	// Source documents are always scanned across every sheet.
	SheetIndex int

	// TotalRowIndex, when set, receives the order totals: the total sum in the
	// sum column and, if TotalQuantity is true, the total quantity in the
	// quantity column.
	TotalRowIndex *int
	TotalQuantity bool
}

// HasSum reports whether line sums should be computed.
func (c Config) HasSum() bool {
	return c.PriceColumn != nil && c.SumColumn != nil
}

// Columns returns every column the layout references, primary first.
func (c Config) Columns() []int {
	cols := []int{c.CodeColumn, c.QuantityColumn}
	for _, p := range []*int{c.SecondaryCodeColumn, c.PriceColumn, c.SumColumn} {
		if p != nil {
			cols = append(cols, *p)
		}
	}
	return cols
}

// String renders the layout for log lines.
func (c Config) String() string {
	s := fmt.Sprintf("start=%d code=%d qty=%d", c.StartRowIndex, c.CodeColumn, c.QuantityColumn)
	if c.SecondaryCodeColumn != nil {
		s += fmt.Sprintf(" code2=%d", *c.SecondaryCodeColumn)
	}
	if c.PriceColumn != nil {
		s += fmt.Sprintf(" price=%d", *c.PriceColumn)
	}
	if c.SumColumn != nil {
		s += fmt.Sprintf(" sum=%d", *c.SumColumn)
	}
	if c.TotalRowIndex != nil {
		s += fmt.Sprintf(" total_row=%d", *c.TotalRowIndex)
	}
	return s
}

// Index returns a pointer to i, for filling optional fields in literals.
func Index(i int) *int {
	return &i
}

// =============================================================================
// SET
// =============================================================================

// Set holds the three layouts of one supplier.
type Set struct {
	PriceList      Config
	WarehouseOrder Config
	Preorders      Config
}

// Get returns the layout for role.
func (s Set) Get(role Role) (Config, bool) {
	switch role {
	case RolePriceList:
		return s.PriceList, true
	case RoleWarehouseOrder:
		return s.WarehouseOrder, true
	case RolePreorders:
		return s.Preorders, true
	}
	return Config{}, false
}
