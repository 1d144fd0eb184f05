// =============================================================================
// Order Reconciler - Layout Validation
// =============================================================================
//
// Layouts are checked before any workbook is opened, so a bad supplier
// configuration is reported without touching a file.
//
// ERROR HANDLING:
//   - Problems are collected, not returned one at a time
//   - "error" severity aborts the run, "warning" is only logged
//   - The combined result matches types.ErrConfiguration via errors.Is
//
// =============================================================================

package layout

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

// Severity levels for ValidationError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single problem found in a layout.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Role is the document the layout belongs to.
	Role Role

	// Field names the offending layout field.
	Field string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s.%s: %s", strings.ToUpper(e.Severity), e.Role, e.Field, e.Message)
}

// ValidationResult contains every problem found in a Set.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// IsValid is true when there are no errors. Warnings do not count.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Err returns nil for a valid result and a configuration error listing every
// problem otherwise.
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	return types.ConfigurationError("validate layout", "%s", strings.TrimSpace(FormatErrors(r.Errors)))
}

func (r *ValidationResult) add(e *ValidationError) {
	if e.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, e)
		return
	}
	r.Errors = append(r.Errors, e)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateSet checks all three layouts of a supplier.
func ValidateSet(s Set) *ValidationResult {
	result := &ValidationResult{}
	for _, role := range Roles {
		cfg, _ := s.Get(role)
		validateInto(result, role, cfg)
	}
	return result
}

// Validate checks a single layout.
func Validate(role Role, c Config) *ValidationResult {
	result := &ValidationResult{}
	validateInto(result, role, c)
	return result
}

func validateInto(result *ValidationResult, role Role, c Config) {
	fail := func(field, format string, args ...interface{}) {
		result.add(&ValidationError{Severity: SeverityError, Role: role, Field: field, Message: fmt.Sprintf(format, args...)})
	}
	warn := func(field, format string, args ...interface{}) {
		result.add(&ValidationError{Severity: SeverityWarning, Role: role, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.StartRowIndex < 0 {
		fail("start_row", "missing or negative (%d)", c.StartRowIndex)
	}
	if c.CodeColumn < 0 {
		fail("code_column", "missing or negative (%d)", c.CodeColumn)
	}
	if c.QuantityColumn < 0 {
		fail("quantity_column", "missing or negative (%d)", c.QuantityColumn)
	}
	if c.SheetIndex < 0 {
		fail("sheet_index", "negative (%d)", c.SheetIndex)
	}

	optional := []struct {
		field string
		value *int
	}{
		{"secondary_code_column", c.SecondaryCodeColumn},
		{"price_column", c.PriceColumn},
		{"sum_column", c.SumColumn},
		{"total_row", c.TotalRowIndex},
	}
	for _, o := range optional {
		if o.value != nil && *o.value < 0 {
			fail(o.field, "negative (%d)", *o.value)
		}
	}

	if c.CodeColumn >= 0 && c.CodeColumn == c.QuantityColumn {
		fail("quantity_column", "same column as code_column")
	}

	switch role {
	case RolePriceList:
		if (c.PriceColumn == nil) != (c.SumColumn == nil) {
			warn("sum_column", "price_column and sum_column must both be set for line sums; sums disabled")
		}
		if c.SumColumn != nil && (*c.SumColumn == c.QuantityColumn || *c.SumColumn == c.CodeColumn) {
			fail("sum_column", "overlaps the code or quantity column")
		}
		if c.TotalRowIndex != nil && !c.HasSum() && !c.TotalQuantity {
			warn("total_row", "set but nothing to total; enable total_quantity or configure sums")
		}
	default:
		if c.PriceColumn != nil || c.SumColumn != nil || c.TotalRowIndex != nil {
			warn("price_column", "price, sum and total settings are only used on the price list")
		}
		if c.SecondaryCodeColumn != nil && *c.SecondaryCodeColumn == c.QuantityColumn {
			fail("secondary_code_column", "same column as quantity_column")
		}
	}
}

// FormatErrors formats validation problems for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Layout validation found %d problem(s):\n", len(errors)))
	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}
