package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

func TestMergeRules(t *testing.T) {
	warehouse := types.QuantityMap{"A": 3, "B": 2, "Z": 0}
	preorders := types.QuantityMap{"B": 5, "C": 1, "N": -4}

	got := Merge(warehouse, preorders)

	assert.Equal(t, types.QuantityMap{"A": 3, "B": 7, "C": 1}, got)
}

func TestMergeIsCommutative(t *testing.T) {
	w := types.QuantityMap{"A": 1.5, "B": 2, "D": 0}
	p := types.QuantityMap{"B": 0.5, "C": 4}

	assert.Equal(t, Merge(w, p), Merge(p, w))
}

func TestMergeEmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
	assert.Equal(t, types.QuantityMap{"A": 1}, Merge(nil, types.QuantityMap{"A": 1}))
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	w := types.QuantityMap{"A": 1}
	p := types.QuantityMap{"A": 2}
	Merge(w, p)

	assert.Equal(t, types.QuantityMap{"A": 1}, w)
	assert.Equal(t, types.QuantityMap{"A": 2}, p)
}

func TestSources(t *testing.T) {
	got := Sources(types.QuantityMap{"A": 1, "B": 1}, types.QuantityMap{"B": 1, "C": 2})
	assert.Equal(t, map[string]Source{"A": SourceWarehouse, "B": SourceBoth, "C": SourcePreorders}, got)
}
