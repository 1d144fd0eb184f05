// Package reconcile combines the warehouse and preorder demand into the final
// order quantities.
package reconcile

import "github.com/ginjaninja78/xlsx-order-reconciler/internal/types"

// Merge returns the final quantity per code.
//
// For every code in either map: a missing or non-positive quantity on one side
// falls through to the other side, and two positive quantities are added.
// Codes whose final quantity is not positive are dropped. Neither input is
// modified, and Merge(a, b) equals Merge(b, a).
func Merge(warehouse, preorders types.QuantityMap) types.QuantityMap {
	final := make(types.QuantityMap, len(warehouse)+len(preorders))

	for code, q := range warehouse {
		if q > 0 {
			final[code] += q
		}
	}
	for code, q := range preorders {
		if q > 0 {
			final[code] += q
		}
	}

	for code, q := range final {
		if q <= 0 {
			delete(final, code)
		}
	}
	return final
}

// Source tells where a final quantity came from.
type Source string

const (
	SourceWarehouse Source = "warehouse"
	SourcePreorders Source = "preorders"
	SourceBoth      Source = "both"
)

// Sources classifies every code of a merged result, for the run report.
func Sources(warehouse, preorders types.QuantityMap) map[string]Source {
	out := make(map[string]Source)
	for code := range Merge(warehouse, preorders) {
		w, p := warehouse[code] > 0, preorders[code] > 0
		switch {
		case w && p:
			out[code] = SourceBoth
		case w:
			out[code] = SourceWarehouse
		default:
			out[code] = SourcePreorders
		}
	}
	return out
}
